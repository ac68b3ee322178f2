package testutil

import (
	"context"

	"github.com/preston-bernstein/tennis-live-feed/internal/domain/matches"
)

// GoodProvider returns the provided matches with no error.
type GoodProvider struct {
	Matches []matches.Snapshot
}

func (p GoodProvider) FetchMatches(ctx context.Context) ([]matches.Snapshot, error) {
	_ = ctx
	return matches.CloneSnapshots(p.Matches), nil
}

// ErrProvider always returns the provided error.
type ErrProvider struct {
	Err error
}

func (p ErrProvider) FetchMatches(ctx context.Context) ([]matches.Snapshot, error) {
	_ = ctx
	return nil, p.Err
}

// BlockingProvider waits for Release (or ctx) before answering, so tests can
// order the bootstrap result against other events.
type BlockingProvider struct {
	Matches []matches.Snapshot
	Err     error
	Started chan struct{}
	Release chan struct{}
}

// NewBlockingProvider builds a BlockingProvider with its channels allocated.
func NewBlockingProvider(list []matches.Snapshot, err error) *BlockingProvider {
	return &BlockingProvider{
		Matches: list,
		Err:     err,
		Started: make(chan struct{}, 1),
		Release: make(chan struct{}),
	}
}

func (p *BlockingProvider) FetchMatches(ctx context.Context) ([]matches.Snapshot, error) {
	select {
	case p.Started <- struct{}{}:
	default:
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.Release:
	}
	if p.Err != nil {
		return nil, p.Err
	}
	return matches.CloneSnapshots(p.Matches), nil
}
