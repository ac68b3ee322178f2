package teststubs

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/preston-bernstein/tennis-live-feed/internal/domain/matches"
)

// StubProvider is a test double for providers.DataProvider.
type StubProvider struct {
	Matches  []matches.Snapshot
	Analysis json.RawMessage
	Raw      json.RawMessage
	Err      error
	Calls    atomic.Int32
	Notify   chan struct{}
}

// FetchMatches returns the configured matches and error while tracking calls.
func (s *StubProvider) FetchMatches(ctx context.Context) ([]matches.Snapshot, error) {
	_ = ctx
	s.touch()
	return s.Matches, s.Err
}

// FetchAnalysis returns the configured analysis body.
func (s *StubProvider) FetchAnalysis(ctx context.Context) (json.RawMessage, error) {
	_ = ctx
	s.touch()
	return s.Analysis, s.Err
}

// FetchRaw returns the configured raw body.
func (s *StubProvider) FetchRaw(ctx context.Context) (json.RawMessage, error) {
	_ = ctx
	s.touch()
	return s.Raw, s.Err
}

func (s *StubProvider) touch() {
	if s.Notify != nil {
		select {
		case <-s.Notify:
		default:
			close(s.Notify)
		}
	}
	s.Calls.Add(1)
}

// StubFeed is a test double for the read side of the synchronizer.
type StubFeed struct {
	mu    sync.Mutex
	state matches.FeedState
}

// NewStubFeed returns a feed that reports state until Set is called.
func NewStubFeed(state matches.FeedState) *StubFeed {
	return &StubFeed{state: state}
}

// State returns a copy of the current state.
func (f *StubFeed) State() matches.FeedState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.Clone()
}

// Set replaces the reported state.
func (f *StubFeed) Set(state matches.FeedState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = state
}
