package config

import "time"

// ConfigPathEnv names the optional YAML file layered between defaults and environment.
const ConfigPathEnv = "CONFIG_PATH"

const (
	envPort       = "PORT"
	envProvider   = "FEED_PROVIDER"
	envLogLevel   = "LOG_LEVEL"
	envLogFormat  = "LOG_FORMAT"
	envWSURL      = "FEED_WS_URL"
	envAPIBaseURL = "FEED_API_BASE_URL"

	envThrottleInterval = "THROTTLE_INTERVAL"
	envCoalesceDelay    = "COALESCE_DELAY"
	envRecencyGuard     = "RECENCY_GUARD"
	envFetchTimeout     = "FETCH_TIMEOUT"
	envFetchRateLimit   = "FETCH_RATE_LIMIT"
	envRetryAttempts    = "FETCH_RETRY_ATTEMPTS"
	envBreakerFailures  = "BREAKER_FAILURES"
	envBreakerTimeout   = "BREAKER_TIMEOUT"

	envReconnectDelay    = "RECONNECT_DELAY"
	envReconnectPolicy   = "RECONNECT_POLICY"
	envReconnectMaxDelay = "RECONNECT_MAX_DELAY"
	envHandshakeTimeout  = "HANDSHAKE_TIMEOUT"

	envCacheBackend  = "CACHE_BACKEND"
	envCachePath     = "CACHE_PATH"
	envCacheMaxAge   = "CACHE_MAX_AGE"
	envCacheMaxBytes = "CACHE_MAX_BYTES"

	envRawLogEnabled  = "RAW_LOG_ENABLED"
	envRawLogInterval = "RAW_LOG_INTERVAL"
	envRawLogCapacity = "RAW_LOG_CAPACITY"

	envMetricsPort  = "METRICS_PORT"
	envMetricsOn    = "METRICS_ENABLED"
	envOtelEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envOtelService  = "OTEL_SERVICE_NAME"
	envOtelInsecure = "OTEL_EXPORTER_OTLP_INSECURE"

	defaultPort       = "4000"
	defaultProvider   = "tennisapi"
	defaultLogLevel   = "info"
	defaultLogFormat  = "text"
	defaultWSURL      = "ws://localhost:8000/ws"
	defaultAPIBaseURL = "http://localhost:8000"

	defaultThrottleInterval = 3 * time.Second
	defaultCoalesceDelay    = 100 * time.Millisecond
	defaultFetchTimeout     = 10 * time.Second
	defaultFetchRateLimit   = 500 * time.Millisecond
	defaultRetryAttempts    = 3
	defaultBreakerFailures  = 5
	defaultBreakerTimeout   = 30 * time.Second

	defaultReconnectDelay    = 5 * time.Second
	defaultReconnectPolicy   = "fixed"
	defaultReconnectMaxDelay = time.Minute
	defaultHandshakeTimeout  = 10 * time.Second

	defaultCacheBackend  = "file"
	defaultCachePath     = "data/cache"
	defaultCacheMaxAge   = 7 * 24 * time.Hour
	defaultCacheMaxBytes = 5 << 20

	// Matches the viewer's 30s refresh of the raw dump.
	defaultRawLogInterval = 30 * time.Second
	defaultRawLogCapacity = 20

	defaultMetricsPort = "9090"
	defaultServiceName = "tennis-live-feed"
)

// envKeys maps environment variables onto koanf paths.
var envKeys = map[string]string{
	envPort:       "port",
	envProvider:   "provider",
	envLogLevel:   "log.level",
	envLogFormat:  "log.format",
	envWSURL:      "feed.ws_url",
	envAPIBaseURL: "feed.api_base_url",

	envThrottleInterval: "feed.throttle_interval",
	envCoalesceDelay:    "feed.coalesce_delay",
	envRecencyGuard:     "feed.recency_guard",
	envFetchTimeout:     "feed.fetch_timeout",
	envFetchRateLimit:   "feed.fetch_rate_limit",
	envRetryAttempts:    "feed.retry_attempts",
	envBreakerFailures:  "feed.breaker_failures",
	envBreakerTimeout:   "feed.breaker_timeout",

	envReconnectDelay:    "channel.reconnect_delay",
	envReconnectPolicy:   "channel.reconnect_policy",
	envReconnectMaxDelay: "channel.reconnect_max_delay",
	envHandshakeTimeout:  "channel.handshake_timeout",

	envCacheBackend:  "cache.backend",
	envCachePath:     "cache.path",
	envCacheMaxAge:   "cache.max_age",
	envCacheMaxBytes: "cache.max_bytes",

	envRawLogEnabled:  "raw_log.enabled",
	envRawLogInterval: "raw_log.interval",
	envRawLogCapacity: "raw_log.capacity",

	envMetricsOn:    "metrics.enabled",
	envMetricsPort:  "metrics.port",
	envOtelEndpoint: "metrics.otlp_endpoint",
	envOtelService:  "metrics.service_name",
	envOtelInsecure: "metrics.otlp_insecure",
}
