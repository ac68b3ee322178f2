package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type valueKind int

const (
	kindString valueKind = iota
	kindDuration
	kindInt
	kindBool
)

var envKinds = map[string]valueKind{
	envThrottleInterval:  kindDuration,
	envCoalesceDelay:     kindDuration,
	envFetchTimeout:      kindDuration,
	envFetchRateLimit:    kindDuration,
	envBreakerTimeout:    kindDuration,
	envReconnectDelay:    kindDuration,
	envReconnectMaxDelay: kindDuration,
	envHandshakeTimeout:  kindDuration,
	envCacheMaxAge:       kindDuration,
	envRawLogInterval:    kindDuration,
	envRetryAttempts:     kindInt,
	envBreakerFailures:   kindInt,
	envCacheMaxBytes:     kindInt,
	envRawLogCapacity:    kindInt,
	envRecencyGuard:      kindBool,
	envRawLogEnabled:     kindBool,
	envMetricsOn:         kindBool,
	envOtelInsecure:      kindBool,
}

// envValue maps one environment variable onto a koanf path and typed value.
// Unknown keys and unparseable values return an empty path so the lower layer wins.
func envValue(key, raw string) (string, any) {
	path, ok := envKeys[key]
	if !ok {
		return "", nil
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	switch envKinds[key] {
	case kindDuration:
		d, ok := parseDuration(raw)
		if !ok {
			return "", nil
		}
		return path, d
	case kindInt:
		n, ok := parseInt(raw)
		if !ok {
			return "", nil
		}
		return path, n
	case kindBool:
		b, ok := parseBool(raw)
		if !ok {
			return "", nil
		}
		return path, b
	default:
		return path, raw
	}
}

// parseDuration accepts Go durations and bare integers as milliseconds.
func parseDuration(raw string) (time.Duration, bool) {
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if ms < 0 {
			return 0, false
		}
		return time.Duration(ms) * time.Millisecond, true
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed < 0 {
		return 0, false
	}
	return parsed, true
}

func parseInt(raw string) (int, bool) {
	val, err := strconv.Atoi(raw)
	if err != nil || val < 0 {
		return 0, false
	}
	return val, true
}

func parseBool(raw string) (bool, bool) {
	if raw == "1" || strings.EqualFold(raw, "true") || strings.EqualFold(raw, "yes") {
		return true, true
	}
	if raw == "0" || strings.EqualFold(raw, "false") || strings.EqualFold(raw, "no") {
		return false, true
	}
	return false, false
}

func configPath() string {
	return strings.TrimSpace(os.Getenv(ConfigPathEnv))
}
