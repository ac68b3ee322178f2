package config

import "time"

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn warning error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// FeedConfig tunes the synchronizer and the upstream query client.
type FeedConfig struct {
	WSURL            string        `koanf:"ws_url" validate:"required,url"`
	APIBaseURL       string        `koanf:"api_base_url" validate:"required,url"`
	ThrottleInterval time.Duration `koanf:"throttle_interval" validate:"gt=0"`
	CoalesceDelay    time.Duration `koanf:"coalesce_delay" validate:"gte=0"`
	RecencyGuard     bool          `koanf:"recency_guard"`
	FetchTimeout     time.Duration `koanf:"fetch_timeout" validate:"gt=0"`
	// FetchRateLimit is the minimum spacing between upstream calls; zero disables it.
	FetchRateLimit  time.Duration `koanf:"fetch_rate_limit" validate:"gte=0"`
	RetryAttempts   int           `koanf:"retry_attempts" validate:"gte=1,lte=10"`
	BreakerFailures uint32        `koanf:"breaker_failures" validate:"gte=1"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout" validate:"gt=0"`
}

// ChannelConfig tunes the push channel.
type ChannelConfig struct {
	ReconnectPolicy   string        `koanf:"reconnect_policy" validate:"oneof=fixed exponential"`
	ReconnectDelay    time.Duration `koanf:"reconnect_delay" validate:"gt=0"`
	ReconnectMaxDelay time.Duration `koanf:"reconnect_max_delay" validate:"gte=0"`
	HandshakeTimeout  time.Duration `koanf:"handshake_timeout" validate:"gt=0"`
}

// CacheConfig selects the persistent cache backend.
type CacheConfig struct {
	Backend  string        `koanf:"backend" validate:"oneof=memory file badger pebble"`
	Path     string        `koanf:"path"`
	MaxAge   time.Duration `koanf:"max_age" validate:"gt=0"`
	MaxBytes int64         `koanf:"max_bytes" validate:"gte=0"`
}

// RawLogConfig controls the raw dump poller.
type RawLogConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Interval time.Duration `koanf:"interval" validate:"gt=0"`
	Capacity int           `koanf:"capacity" validate:"gte=1,lte=1000"`
}

func defaultLog() LogConfig {
	return LogConfig{Level: defaultLogLevel, Format: defaultLogFormat}
}

func defaultFeed() FeedConfig {
	return FeedConfig{
		WSURL:            defaultWSURL,
		APIBaseURL:       defaultAPIBaseURL,
		ThrottleInterval: defaultThrottleInterval,
		CoalesceDelay:    defaultCoalesceDelay,
		RecencyGuard:     true,
		FetchTimeout:     defaultFetchTimeout,
		FetchRateLimit:   defaultFetchRateLimit,
		RetryAttempts:    defaultRetryAttempts,
		BreakerFailures:  defaultBreakerFailures,
		BreakerTimeout:   defaultBreakerTimeout,
	}
}

func defaultChannel() ChannelConfig {
	return ChannelConfig{
		ReconnectPolicy:   defaultReconnectPolicy,
		ReconnectDelay:    defaultReconnectDelay,
		ReconnectMaxDelay: defaultReconnectMaxDelay,
		HandshakeTimeout:  defaultHandshakeTimeout,
	}
}

func defaultCache() CacheConfig {
	return CacheConfig{
		Backend:  defaultCacheBackend,
		Path:     defaultCachePath,
		MaxAge:   defaultCacheMaxAge,
		MaxBytes: defaultCacheMaxBytes,
	}
}

func defaultRawLog() RawLogConfig {
	return RawLogConfig{
		Enabled:  true,
		Interval: defaultRawLogInterval,
		Capacity: defaultRawLogCapacity,
	}
}
