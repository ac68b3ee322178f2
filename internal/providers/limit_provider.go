package providers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/preston-bernstein/tennis-live-feed/internal/domain/matches"
)

const rateLimitedName = "rate-limited"

// rateLimitedProvider wraps a DataProvider and enforces a minimum interval between calls.
type rateLimitedProvider struct {
	next    DataProvider
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewRateLimitedProvider returns a DataProvider that limits calls to one per interval.
// Calls block until a token is available to avoid exceeding upstream quotas.
func NewRateLimitedProvider(next DataProvider, interval time.Duration, logger *slog.Logger) DataProvider {
	if interval <= 0 {
		interval = time.Second
	}
	return &rateLimitedProvider{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		logger:  logger,
	}
}

func (p *rateLimitedProvider) FetchMatches(ctx context.Context) ([]matches.Snapshot, error) {
	if err := p.wait(ctx, "matches"); err != nil {
		return nil, err
	}
	return p.next.FetchMatches(ctx)
}

func (p *rateLimitedProvider) FetchAnalysis(ctx context.Context) (json.RawMessage, error) {
	if err := p.wait(ctx, "analysis"); err != nil {
		return nil, err
	}
	return p.next.FetchAnalysis(ctx)
}

func (p *rateLimitedProvider) FetchRaw(ctx context.Context) (json.RawMessage, error) {
	if err := p.wait(ctx, "raw"); err != nil {
		return nil, err
	}
	return p.next.FetchRaw(ctx)
}

func (p *rateLimitedProvider) wait(ctx context.Context, op string) error {
	if p == nil || p.next == nil {
		if p != nil {
			logWithProvider(ctx, p.logger, slog.LevelWarn, rateLimitedName, "provider unavailable")
		}
		return ErrProviderUnavailable
	}
	if err := p.limiter.Wait(ctx); err != nil {
		logWithProvider(ctx, p.logger, slog.LevelWarn, rateLimitedName, "rate-limited fetch canceled", slog.String("op", op))
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	logWithProvider(ctx, p.logger, slog.LevelDebug, rateLimitedName, "rate-limited provider fetch", slog.String("op", op))
	return nil
}
