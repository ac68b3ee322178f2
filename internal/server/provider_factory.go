package server

import (
	"log/slog"

	"github.com/preston-bernstein/tennis-live-feed/internal/config"
	"github.com/preston-bernstein/tennis-live-feed/internal/metrics"
	"github.com/preston-bernstein/tennis-live-feed/internal/providers"
)

// providerFactory assembles the provider with shared wrappers (rate limit, breaker, retry).
type providerFactory struct {
	logger  *slog.Logger
	metrics *metrics.Recorder
}

func newProviderFactory(logger *slog.Logger, metrics *metrics.Recorder) providerFactory {
	return providerFactory{logger: logger, metrics: metrics}
}

func (f providerFactory) build(cfg config.Config) providers.DataProvider {
	return f.wrap(cfg, selectProvider(cfg, f.logger))
}

func (f providerFactory) wrap(cfg config.Config, base providers.DataProvider) providers.DataProvider {
	name := normalizeProviderName(cfg.Provider, base)

	wrapped := base
	if cfg.Feed.FetchRateLimit > 0 {
		wrapped = providers.NewRateLimitedProvider(wrapped, cfg.Feed.FetchRateLimit, f.logger)
	}
	wrapped = providers.NewBreakerProvider(wrapped, providers.BreakerSettings{
		Name:                name,
		ConsecutiveFailures: cfg.Feed.BreakerFailures,
		OpenTimeout:         cfg.Feed.BreakerTimeout,
	}, f.logger)

	// Retry wraps the breaker; open-circuit errors are never retried.
	return providers.NewRetryingProvider(wrapped, f.logger, f.metrics, name, cfg.Feed.RetryAttempts, 0)
}
