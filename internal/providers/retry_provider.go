package providers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/preston-bernstein/tennis-live-feed/internal/domain/matches"
)

const (
	defaultRetryAttempts = 3
	defaultBackoff       = 200 * time.Millisecond
)

type backoffFunc func(attempt int) time.Duration

// AttemptRecorder observes every upstream attempt made by a decorated provider.
type AttemptRecorder interface {
	RecordProviderAttempt(provider string, duration time.Duration, err error)
	RecordRateLimit(provider string, retryAfter time.Duration)
}

// retryingProvider wraps a DataProvider with retry/backoff behavior.
type retryingProvider struct {
	inner       DataProvider
	logger      *slog.Logger
	recorder    AttemptRecorder
	name        string
	maxAttempts int
	backoffFn   backoffFunc
}

// NewRetryingProvider wraps the given provider with retries. If maxAttempts/backoff are <= 0, defaults are used.
// A nil recorder disables attempt accounting.
func NewRetryingProvider(inner DataProvider, logger *slog.Logger, recorder AttemptRecorder, name string, maxAttempts int, backoff time.Duration) DataProvider {
	if maxAttempts <= 0 {
		maxAttempts = defaultRetryAttempts
	}
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	if name == "" {
		name = "provider"
	}
	return &retryingProvider{
		inner:       inner,
		logger:      logger,
		recorder:    recorder,
		name:        name,
		maxAttempts: maxAttempts,
		backoffFn: func(attempt int) time.Duration {
			return time.Duration(attempt) * backoff
		},
	}
}

func (r *retryingProvider) FetchMatches(ctx context.Context) ([]matches.Snapshot, error) {
	return withRetry(ctx, r, "matches", r.inner.FetchMatches)
}

func (r *retryingProvider) FetchAnalysis(ctx context.Context) (json.RawMessage, error) {
	return withRetry(ctx, r, "analysis", r.inner.FetchAnalysis)
}

func (r *retryingProvider) FetchRaw(ctx context.Context) (json.RawMessage, error) {
	return withRetry(ctx, r, "raw", r.inner.FetchRaw)
}

func withRetry[T any](ctx context.Context, r *retryingProvider, op string, call func(context.Context) (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		started := time.Now()
		out, err := call(ctx)
		r.record(time.Since(started), err)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if attempt == r.maxAttempts || !retryable(err) {
			break
		}

		r.log(ctx, slog.LevelWarn, "provider fetch retry",
			"op", op, "attempt", attempt, "max_attempts", r.maxAttempts, "err", err)

		delay := r.backoffFn(attempt)
		if rl, ok := AsRateLimitError(err); ok && rl.RetryAfter > delay {
			delay = rl.RetryAfter
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	r.log(ctx, slog.LevelWarn, "provider fetch failed", "op", op, "attempts", r.maxAttempts, "err", lastErr)
	return zero, lastErr
}

// retryable reports whether another attempt could succeed. Cancellation and
// client errors other than 429 are final.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrProviderUnavailable) {
		return false
	}
	if _, ok := AsRateLimitError(err); ok {
		return true
	}
	if fe, ok := AsFetchError(err); ok && fe.StatusCode >= 400 && fe.StatusCode < 500 {
		return fe.StatusCode == http.StatusTooManyRequests
	}
	return true
}

func (r *retryingProvider) record(d time.Duration, err error) {
	if r.recorder == nil {
		return
	}
	r.recorder.RecordProviderAttempt(r.name, d, err)
	if rl, ok := AsRateLimitError(err); ok {
		r.recorder.RecordRateLimit(r.name, rl.RetryAfter)
	}
}

func (r *retryingProvider) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	logWithProvider(ctx, r.logger, level, r.name, msg, args...)
}
