package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/preston-bernstein/tennis-live-feed/internal/domain/matches"
)

const (
	defaultBreakerFailures = 5
	defaultBreakerTimeout  = 30 * time.Second
)

// BreakerSettings tunes the circuit breaker in front of the upstream.
type BreakerSettings struct {
	Name                string
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
	HalfOpenRequests    uint32
	Interval            time.Duration
}

// breakerProvider short-circuits calls while the upstream keeps failing.
type breakerProvider struct {
	next   DataProvider
	cb     *gobreaker.CircuitBreaker[any]
	logger *slog.Logger
}

// NewBreakerProvider wraps next with a circuit breaker. Calls rejected by an
// open breaker fail with ErrProviderUnavailable.
func NewBreakerProvider(next DataProvider, settings BreakerSettings, logger *slog.Logger) DataProvider {
	if settings.Name == "" {
		settings.Name = "upstream"
	}
	if settings.ConsecutiveFailures == 0 {
		settings.ConsecutiveFailures = defaultBreakerFailures
	}
	if settings.OpenTimeout <= 0 {
		settings.OpenTimeout = defaultBreakerTimeout
	}
	if settings.HalfOpenRequests == 0 {
		settings.HalfOpenRequests = 1
	}
	threshold := settings.ConsecutiveFailures
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.HalfOpenRequests,
		Interval:    settings.Interval,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			// Caller cancellation says nothing about upstream health.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			level := slog.LevelInfo
			if to == gobreaker.StateOpen {
				level = slog.LevelWarn
			}
			logWithProvider(context.Background(), logger, level, name, "circuit breaker state change",
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
	return &breakerProvider{next: next, cb: cb, logger: logger}
}

func (p *breakerProvider) FetchMatches(ctx context.Context) ([]matches.Snapshot, error) {
	return execute[[]matches.Snapshot](p, func() (any, error) { return p.next.FetchMatches(ctx) })
}

func (p *breakerProvider) FetchAnalysis(ctx context.Context) (json.RawMessage, error) {
	return execute[json.RawMessage](p, func() (any, error) { return p.next.FetchAnalysis(ctx) })
}

func (p *breakerProvider) FetchRaw(ctx context.Context) (json.RawMessage, error) {
	return execute[json.RawMessage](p, func() (any, error) { return p.next.FetchRaw(ctx) })
}

func execute[T any](p *breakerProvider, fn func() (any, error)) (T, error) {
	var zero T
	if p.next == nil {
		return zero, ErrProviderUnavailable
	}
	out, err := p.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		}
		return zero, err
	}
	typed, ok := out.(T)
	if !ok && out != nil {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", out)
	}
	return typed, nil
}
