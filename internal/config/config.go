package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config holds runtime configuration for the server.
type Config struct {
	Port     string        `koanf:"port" validate:"required,numeric"`
	Provider string        `koanf:"provider" validate:"oneof=tennisapi fixture"`
	Log      LogConfig     `koanf:"log"`
	Feed     FeedConfig    `koanf:"feed"`
	Channel  ChannelConfig `koanf:"channel"`
	Cache    CacheConfig   `koanf:"cache"`
	RawLog   RawLogConfig  `koanf:"raw_log"`
	Metrics  MetricsConfig `koanf:"metrics"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:     defaultPort,
		Provider: defaultProvider,
		Log:      defaultLog(),
		Feed:     defaultFeed(),
		Channel:  defaultChannel(),
		Cache:    defaultCache(),
		RawLog:   defaultRawLog(),
		Metrics:  defaultMetrics(),
	}
}

// Load reads configuration from defaults, the optional CONFIG_PATH file and the
// environment. Invalid values fall back to defaults.
func Load() Config {
	cfg, _ := LoadWithWarnings()
	return cfg
}

// LoadWithWarnings is Load plus the problems that forced a fallback.
func LoadWithWarnings() (Config, []string) {
	var warnings []string
	defaults := Default()
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return defaults, []string{fmt.Sprintf("load defaults: %v", err)}
	}

	if path := configPath(); path != "" {
		if _, err := os.Stat(path); err != nil {
			warnings = append(warnings, fmt.Sprintf("config file %s: %v", path, err))
		} else if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			warnings = append(warnings, fmt.Sprintf("config file %s: %v", path, err))
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", envValue), nil); err != nil {
		warnings = append(warnings, fmt.Sprintf("environment: %v", err))
	}

	cfg := Config{}
	if err := k.Unmarshal("", &cfg); err != nil {
		return defaults, append(warnings, fmt.Sprintf("unmarshal: %v", err))
	}

	return cfg, append(warnings, cfg.sanitize(defaults)...)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// sanitize validates cfg and resets every field group that fails to its default.
func (c *Config) sanitize(defaults Config) []string {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{fmt.Sprintf("validate: %v", err)}
	}
	var warnings []string
	reset := make(map[string]bool)
	for _, fe := range verrs {
		warnings = append(warnings, fmt.Sprintf("invalid %s (%s), using default", fe.Namespace(), fe.Tag()))
		reset[group(fe.StructNamespace())] = true
	}
	for g := range reset {
		c.resetGroup(g, defaults)
	}
	return warnings
}

// group returns the top-level field of a "Config.Field.Sub" namespace.
func group(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

func (c *Config) resetGroup(g string, d Config) {
	switch g {
	case "Port":
		c.Port = d.Port
	case "Provider":
		c.Provider = d.Provider
	case "Log":
		c.Log = d.Log
	case "Feed":
		c.Feed = d.Feed
	case "Channel":
		c.Channel = d.Channel
	case "Cache":
		c.Cache = d.Cache
	case "RawLog":
		c.RawLog = d.RawLog
	case "Metrics":
		c.Metrics = d.Metrics
	}
}
