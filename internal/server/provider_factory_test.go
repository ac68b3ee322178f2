package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/preston-bernstein/tennis-live-feed/internal/providers"
	"github.com/preston-bernstein/tennis-live-feed/internal/teststubs"
)

func TestProviderFactoryBuildsFixture(t *testing.T) {
	factory := newProviderFactory(nil, nil)
	prov := factory.build(testConfig())
	if prov == nil {
		t.Fatalf("expected provider")
	}
	list, err := prov.FetchMatches(context.Background())
	if err != nil || len(list) == 0 {
		t.Fatalf("expected fixture matches, got %d err=%v", len(list), err)
	}
}

func TestProviderFactoryOpensBreakerAfterFailures(t *testing.T) {
	cfg := testConfig()
	cfg.Feed.RetryAttempts = 1
	cfg.Feed.BreakerFailures = 2
	cfg.Feed.BreakerTimeout = time.Minute

	stub := &teststubs.StubProvider{Err: errors.New("upstream down")}
	prov := newProviderFactory(nil, nil).wrap(cfg, stub)

	for i := 0; i < 2; i++ {
		if _, err := prov.FetchMatches(context.Background()); err == nil {
			t.Fatalf("expected failure on call %d", i)
		}
	}
	_, err := prov.FetchMatches(context.Background())
	if !errors.Is(err, providers.ErrProviderUnavailable) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if got := stub.Calls.Load(); got != 2 {
		t.Fatalf("expected open circuit to skip upstream, got %d calls", got)
	}
}

func TestProviderFactoryRetriesTransientFailures(t *testing.T) {
	cfg := testConfig()
	cfg.Feed.RetryAttempts = 3
	cfg.Feed.BreakerFailures = 10

	stub := &teststubs.StubProvider{Err: errors.New("flaky")}
	prov := newProviderFactory(nil, nil).wrap(cfg, stub)

	if _, err := prov.FetchRaw(context.Background()); err == nil {
		t.Fatalf("expected error after exhausting retries")
	}
	if got := stub.Calls.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestProviderFactorySpacesCallsWhenRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.Feed.FetchRateLimit = 30 * time.Millisecond

	stub := &teststubs.StubProvider{}
	prov := newProviderFactory(nil, nil).wrap(cfg, stub)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := prov.FetchMatches(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Fatalf("expected limiter to space calls, took %s", elapsed)
	}
}

func TestNormalizeProviderName(t *testing.T) {
	if got := normalizeProviderName("TennisAPI", nil); got != "tennisapi" {
		t.Fatalf("expected lower-cased name, got %s", got)
	}
	if got := normalizeProviderName("", &teststubs.StubProvider{}); got != "*teststubs.stubprovider" {
		t.Fatalf("expected derived name, got %s", got)
	}
	if got := normalizeProviderName("", nil); got != "provider" {
		t.Fatalf("expected fallback name, got %s", got)
	}
}
