package testutil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClockHelpers(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if got := NowAt(now)(); !got.Equal(now) {
		t.Fatalf("expected fixed time, got %v", got)
	}
	if MustParseRFC3339(now.Format(time.RFC3339)) != now {
		t.Fatalf("expected parse round trip")
	}
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic on invalid RFC3339")
		}
	}()
	MustParseRFC3339("not-a-time")
}

func TestFakeSchedulerFiresInOrder(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewFakeScheduler(start)

	var order []string
	var seenAt []time.Time
	s.AfterFunc(200*time.Millisecond, func() { order = append(order, "b"); seenAt = append(seenAt, s.Now()) })
	s.AfterFunc(100*time.Millisecond, func() { order = append(order, "a"); seenAt = append(seenAt, s.Now()) })
	stopped := s.AfterFunc(150*time.Millisecond, func() { order = append(order, "stopped") })
	if !stopped.Stop() {
		t.Fatalf("expected stop of pending timer")
	}
	if stopped.Stop() {
		t.Fatalf("expected second stop to report false")
	}
	if s.Pending() != 2 {
		t.Fatalf("expected 2 pending timers, got %d", s.Pending())
	}

	s.Advance(time.Second)
	if strings.Join(order, ",") != "a,b" {
		t.Fatalf("unexpected firing order %v", order)
	}
	if !seenAt[0].Equal(start.Add(100 * time.Millisecond)) {
		t.Fatalf("expected clock at deadline during callback, got %v", seenAt[0])
	}
	if !s.Now().Equal(start.Add(time.Second)) {
		t.Fatalf("expected clock advanced, got %v", s.Now())
	}
	if s.Pending() != 0 {
		t.Fatalf("expected no pending timers")
	}
}

func TestFakeSchedulerNestedTimers(t *testing.T) {
	s := NewFakeScheduler(time.Unix(0, 0))
	fired := 0
	s.AfterFunc(time.Second, func() {
		fired++
		s.AfterFunc(time.Second, func() { fired++ })
	})
	s.Advance(1500 * time.Millisecond)
	if fired != 1 {
		t.Fatalf("expected first timer only, got %d", fired)
	}
	s.Advance(time.Second)
	if fired != 2 {
		t.Fatalf("expected nested timer to fire, got %d", fired)
	}
}

func TestFixturesHelper(t *testing.T) {
	s := SampleSnapshot("m1", "6-4", "1")
	if s.MatchID != "m1" || !s.HasPayload("betsapi") {
		t.Fatalf("unexpected snapshot fixture %+v", s)
	}
	list := SampleSnapshots("a", "b")
	if len(list) != 2 || list[1].MatchID != "b" {
		t.Fatalf("unexpected fixtures %+v", list)
	}
	if body := string(EnvelopeJSON(list)); !strings.HasPrefix(body, `{"matches":[`) {
		t.Fatalf("unexpected envelope %s", body)
	}
}

func TestServeHelpers(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	rr := Serve(handler, http.MethodPost, "/test", strings.NewReader("{}"))
	AssertStatus(t, rr, http.StatusCreated)
	var body map[string]bool
	DecodeJSON(t, rr, &body)
	if !body["ok"] {
		t.Fatalf("expected ok=true")
	}

	req := httptest.NewRequest(http.MethodGet, "/req", nil)
	rr2 := ServeRequest(handler, req)
	AssertStatus(t, rr2, http.StatusCreated)
}

func TestLoggerHelper(t *testing.T) {
	logger, buf := NewBufferLogger()
	logger.Info("hello", "k", "v")
	if buf.Len() == 0 {
		t.Fatalf("expected buffered log output")
	}
}

func TestProviderHelpers(t *testing.T) {
	ctx := context.Background()
	list := SampleSnapshots("m1")

	got, err := GoodProvider{Matches: list}.FetchMatches(ctx)
	if err != nil || len(got) != 1 {
		t.Fatalf("unexpected good provider result %v %v", got, err)
	}
	boom := errors.New("boom")
	if _, err := (ErrProvider{Err: boom}).FetchMatches(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected error passthrough, got %v", err)
	}

	p := NewBlockingProvider(list, nil)
	done := make(chan error, 1)
	go func() {
		_, err := p.FetchMatches(ctx)
		done <- err
	}()
	<-p.Started
	close(p.Release)
	if err := <-done; err != nil {
		t.Fatalf("expected nil error after release, got %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := NewBlockingProvider(list, nil).FetchMatches(cancelled); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}
