package server

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/preston-bernstein/tennis-live-feed/internal/config"
	"github.com/preston-bernstein/tennis-live-feed/internal/metrics"
	"github.com/preston-bernstein/tennis-live-feed/internal/testutil"
	"github.com/preston-bernstein/tennis-live-feed/internal/teststubs"
)

// metricsSetupSuccess forces a handler to test the buildMetrics success path.
func metricsSetupSuccess(ctx context.Context, cfg metrics.TelemetryConfig) (*metrics.Recorder, http.Handler, func(context.Context) error, error) {
	rec := metrics.NewRecorder()
	return rec, http.NewServeMux(), func(context.Context) error { return nil }, nil
}

func TestBuildMetricsSuccessPathSetsServerAndShutdown(t *testing.T) {
	orig := metricsSetup
	defer func() { metricsSetup = orig }()
	metricsSetup = metricsSetupSuccess

	rec, srv, stop := buildMetrics(config.Config{
		Metrics: config.MetricsConfig{
			Enabled: true,
			Port:    "9999",
		},
	}, nil, nil)

	if rec == nil || srv == nil || stop == nil {
		t.Fatalf("expected recorder, server, and shutdown to be set on success")
	}
	if srv.Addr() != ":9999" {
		t.Fatalf("expected metrics addr :9999, got %s", srv.Addr())
	}
}

func TestNewServerWithMetricsHandlesSetupFailure(t *testing.T) {
	origSetup := metricsSetup
	defer func() { metricsSetup = origSetup }()

	metricsSetup = func(ctx context.Context, cfg metrics.TelemetryConfig) (*metrics.Recorder, http.Handler, func(context.Context) error, error) {
		return nil, nil, nil, errors.New("fail")
	}

	cfg := testConfig()
	cfg.Metrics.Enabled = true

	srv := newServerWithMetrics(cfg, nil, &teststubs.StubProvider{}, nil)
	if srv.metrics == nil {
		t.Fatalf("expected fallback metrics recorder even on setup failure")
	}
	if srv.metricsServer != nil {
		t.Fatalf("expected no metrics server on setup failure")
	}
}

func TestNewServerWithMetricsDisabledSkipsServer(t *testing.T) {
	srv := newServerWithMetrics(testConfig(), nil, &teststubs.StubProvider{}, nil)
	if srv.metrics == nil {
		t.Fatalf("expected recorder to be set even when metrics disabled")
	}
	if srv.metricsServer != nil {
		t.Fatalf("expected no metrics server when disabled")
	}
}

func TestNewServerWithMetricsUsesInjectedRecorder(t *testing.T) {
	rec := metrics.NewRecorder()
	cfg := testConfig()
	cfg.Metrics.Enabled = true

	srv := newServerWithMetrics(cfg, nil, &teststubs.StubProvider{}, rec)
	if srv.metrics != rec {
		t.Fatalf("expected injected recorder to be used")
	}
	if srv.metricsStop != nil {
		t.Fatalf("expected no shutdown hook for injected recorder")
	}
}

func TestServerRecordsProviderAttemptsUnderConfiguredName(t *testing.T) {
	rec := metrics.NewRecorder()
	cfg := testConfig()
	cfg.Provider = "Fixture"

	stub := &teststubs.StubProvider{}
	srv := newServerWithMetrics(cfg, nil, stub, rec)
	testutil.AssertStatus(t, testutil.Serve(srv.Handler(), http.MethodGet, "/analysis", nil), http.StatusOK)

	if got := rec.ProviderCalls("fixture"); got != 1 {
		t.Fatalf("expected 1 recorded call under lower-cased name, got %d", got)
	}
	if stub.Calls.Load() != 1 {
		t.Fatalf("expected stub to be hit once, got %d", stub.Calls.Load())
	}
}
