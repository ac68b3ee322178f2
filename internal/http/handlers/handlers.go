package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"

	appmatches "github.com/preston-bernstein/tennis-live-feed/internal/app/matches"
	"github.com/preston-bernstein/tennis-live-feed/internal/domain/matches"
	"github.com/preston-bernstein/tennis-live-feed/internal/logging"
	"github.com/preston-bernstein/tennis-live-feed/internal/poller"
)

// View names accepted by the ?view= query parameter on /matches.
const (
	ViewAll    = "all"
	ViewInPlay = "inplay"
	ViewValid  = "valid"
)

type nowFunc func() time.Time

// Reports fetches upstream reporting bodies.
type Reports interface {
	FetchAnalysis(ctx context.Context) (json.RawMessage, error)
	FetchRaw(ctx context.Context) (json.RawMessage, error)
}

// RawLog exposes the raw poller's captures and health.
type RawLog interface {
	Status() poller.Status
	Captures() []poller.Capture
}

// Handler wires HTTP routes to the match views.
type Handler struct {
	svc       *appmatches.Service
	reports   Reports
	rawLog    RawLog
	sessionFn func() string
	logger    *slog.Logger
	now       nowFunc
}

// NewHandler constructs a Handler with defaults. reports, rawLog and sessionFn may be nil.
func NewHandler(svc *appmatches.Service, reports Reports, rawLog RawLog, sessionFn func() string, logger *slog.Logger) *Handler {
	return &Handler{
		svc:       svc,
		reports:   reports,
		rawLog:    rawLog,
		sessionFn: sessionFn,
		logger:    logger,
		now:       time.Now,
	}
}

// MatchesResponse is the body of GET /matches.
type MatchesResponse struct {
	View          string             `json:"view"`
	Count         int                `json:"count"`
	Matches       []matches.Snapshot `json:"matches"`
	LastUpdatedAt *time.Time         `json:"lastUpdatedAt,omitempty"`
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	ConnectionStatus matches.ConnectionStatus `json:"connectionStatus"`
	Loading          bool                     `json:"loading"`
	Error            string                   `json:"error,omitempty"`
	Authoritative    bool                     `json:"authoritative"`
	MatchCount       int                      `json:"matchCount"`
	LastUpdatedAt    *time.Time               `json:"lastUpdatedAt,omitempty"`
	LastUpdatedAgo   string                   `json:"lastUpdatedAgo,omitempty"`
	SessionID        string                   `json:"sessionId,omitempty"`
	RawLog           *RawLogStatus            `json:"rawLog,omitempty"`
}

// RawLogStatus reports the raw poller health inside StatusResponse.
type RawLogStatus struct {
	Ready    bool          `json:"ready"`
	Captures int           `json:"captures"`
	Status   poller.Status `json:"status"`
}

// Health reports the service health.
func (h *Handler) Health(w nethttp.ResponseWriter, r *nethttp.Request) {
	if err := r.Context().Err(); err != nil {
		writeError(w, r, nethttp.StatusServiceUnavailable, "shutting down", h.logger)
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]string{"status": "ok"}, h.logger)
}

// Ready reports readiness once any match data is available.
func (h *Handler) Ready(w nethttp.ResponseWriter, r *nethttp.Request) {
	state := h.svc.State()
	if state.HasData() {
		writeJSON(w, nethttp.StatusOK, map[string]string{"status": "ready"}, h.logger)
		return
	}
	msg := state.Error
	if msg == "" {
		msg = "not ready"
	}
	writeError(w, r, nethttp.StatusServiceUnavailable, msg, h.logger)
}

// Matches returns the committed matches, optionally filtered by ?view=.
func (h *Handler) Matches(w nethttp.ResponseWriter, r *nethttp.Request) {
	view := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("view")))
	if view == "" {
		view = ViewAll
	}

	var list []matches.Snapshot
	switch view {
	case ViewAll:
		list = h.svc.Matches()
	case ViewInPlay:
		list = h.svc.InPlay()
	case ViewValid:
		list = h.svc.Valid()
	default:
		writeError(w, r, nethttp.StatusBadRequest, "invalid view (expected all, inplay or valid)", h.logger)
		return
	}
	if list == nil {
		list = []matches.Snapshot{}
	}

	if logger := loggerFromContext(r, h.logger); logger != nil {
		logger.Debug("served matches", "view", view, logging.FieldCount, len(list))
	}
	writeJSON(w, nethttp.StatusOK, MatchesResponse{
		View:          view,
		Count:         len(list),
		Matches:       list,
		LastUpdatedAt: timePtr(h.svc.LastUpdated()),
	}, h.logger)
}

// Leagues returns valid matches grouped by league.
func (h *Handler) Leagues(w nethttp.ResponseWriter, r *nethttp.Request) {
	writeJSON(w, nethttp.StatusOK, map[string]any{"leagues": h.svc.ByLeague()}, h.logger)
}

// MatchByID returns a specific match if present.
func (h *Handler) MatchByID(w nethttp.ResponseWriter, r *nethttp.Request) {
	id, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil || id == "" || strings.ContainsAny(id, " \t/") {
		writeError(w, r, nethttp.StatusBadRequest, "invalid match id", h.logger)
		return
	}

	m, ok := h.svc.MatchByID(id)
	if !ok {
		writeError(w, r, nethttp.StatusNotFound, "match not found", h.logger)
		return
	}
	writeJSON(w, nethttp.StatusOK, m, h.logger)
}

// Status reports the feed connection state and freshness.
func (h *Handler) Status(w nethttp.ResponseWriter, r *nethttp.Request) {
	state := h.svc.State()
	resp := StatusResponse{
		ConnectionStatus: state.ConnectionStatus,
		Loading:          state.Loading,
		Error:            state.Error,
		Authoritative:    state.Authoritative,
		MatchCount:       len(state.Matches),
		LastUpdatedAt:    timePtr(state.LastUpdatedAt),
	}
	if !state.LastUpdatedAt.IsZero() {
		resp.LastUpdatedAgo = humanize.RelTime(state.LastUpdatedAt, h.now(), "ago", "from now")
	}
	if h.sessionFn != nil {
		resp.SessionID = h.sessionFn()
	}
	if h.rawLog != nil {
		st := h.rawLog.Status()
		resp.RawLog = &RawLogStatus{Ready: st.IsReady(), Captures: len(h.rawLog.Captures()), Status: st}
	}
	writeJSON(w, nethttp.StatusOK, resp, h.logger)
}

// Analysis proxies the upstream analysis report.
func (h *Handler) Analysis(w nethttp.ResponseWriter, r *nethttp.Request) {
	if h.reports == nil {
		writeError(w, r, nethttp.StatusServiceUnavailable, "reports not configured", h.logger)
		return
	}
	h.serveReport(w, r, "analysis", h.reports.FetchAnalysis)
}

// Raw proxies the upstream raw provider dump.
func (h *Handler) Raw(w nethttp.ResponseWriter, r *nethttp.Request) {
	if h.reports == nil {
		writeError(w, r, nethttp.StatusServiceUnavailable, "reports not configured", h.logger)
		return
	}
	h.serveReport(w, r, "raw", h.reports.FetchRaw)
}

// RawLogCaptures returns the raw poller's retained captures.
func (h *Handler) RawLogCaptures(w nethttp.ResponseWriter, r *nethttp.Request) {
	if h.rawLog == nil {
		writeError(w, r, nethttp.StatusServiceUnavailable, "raw log disabled", h.logger)
		return
	}
	captures := h.rawLog.Captures()
	writeJSON(w, nethttp.StatusOK, map[string]any{
		"count":    len(captures),
		"captures": captures,
		"status":   h.rawLog.Status(),
	}, h.logger)
}

// NotFound renders unknown routes as JSON.
func (h *Handler) NotFound(w nethttp.ResponseWriter, r *nethttp.Request) {
	writeError(w, r, nethttp.StatusNotFound, "not found", h.logger)
}

// MethodNotAllowed renders wrong-method requests as JSON.
func (h *Handler) MethodNotAllowed(w nethttp.ResponseWriter, r *nethttp.Request) {
	writeError(w, r, nethttp.StatusMethodNotAllowed, "method not allowed", h.logger)
}

func (h *Handler) serveReport(w nethttp.ResponseWriter, r *nethttp.Request, name string, fetch func(context.Context) (json.RawMessage, error)) {
	body, err := fetch(r.Context())
	if err != nil {
		if logger := loggerFromContext(r, h.logger); logger != nil {
			logger.Warn("report fetch failed", "report", name, "err", err)
		}
		writeError(w, r, nethttp.StatusBadGateway, "upstream unavailable", h.logger)
		return
	}
	writeRaw(w, nethttp.StatusOK, body, h.logger)
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	utc := t.UTC()
	return &utc
}
