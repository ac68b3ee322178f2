package teststubs

import (
	"context"
	"errors"
	"testing"

	"github.com/preston-bernstein/tennis-live-feed/internal/domain/matches"
)

func TestStubProviderTracksCalls(t *testing.T) {
	err := errors.New("boom")
	p := &StubProvider{Matches: []matches.Snapshot{{MatchID: "m1"}}, Err: err}
	if _, got := p.FetchMatches(context.Background()); !errors.Is(got, err) {
		t.Fatalf("expected error passthrough, got %v", got)
	}
	if _, got := p.FetchRaw(context.Background()); !errors.Is(got, err) {
		t.Fatalf("expected error passthrough, got %v", got)
	}
	if p.Calls.Load() != 2 {
		t.Fatalf("expected call count 2, got %d", p.Calls.Load())
	}
}

func TestStubProviderClosesNotifyOnce(t *testing.T) {
	p := &StubProvider{Notify: make(chan struct{})}
	_, _ = p.FetchMatches(context.Background())
	_, _ = p.FetchAnalysis(context.Background())

	select {
	case <-p.Notify:
	default:
		t.Fatal("expected notify channel closed")
	}
}

func TestStubFeedReturnsCopies(t *testing.T) {
	f := NewStubFeed(matches.FeedState{Matches: []matches.Snapshot{{MatchID: "m1"}}})
	got := f.State()
	got.Matches[0].MatchID = "changed"

	if f.State().Matches[0].MatchID != "m1" {
		t.Fatal("expected stub state isolated from callers")
	}

	f.Set(matches.FeedState{Loading: true})
	if !f.State().Loading {
		t.Fatal("expected state replaced")
	}
}
