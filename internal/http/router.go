package http

import (
	"log/slog"
	nethttp "net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/preston-bernstein/tennis-live-feed/internal/http/handlers"
	"github.com/preston-bernstein/tennis-live-feed/internal/http/middleware"
	"github.com/preston-bernstein/tennis-live-feed/internal/metrics"
)

// NewRouter registers the read-only routes on a chi router.
func NewRouter(handler *handlers.Handler, logger *slog.Logger, recorder *metrics.Recorder) nethttp.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Chi(logger, recorder))

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	r.Get("/health", handler.Health)
	r.Get("/ready", handler.Ready)
	r.Get("/status", handler.Status)

	r.Route("/matches", func(r chi.Router) {
		r.Get("/", handler.Matches)
		r.Get("/leagues", handler.Leagues)
		r.Get("/{id}", handler.MatchByID)
	})

	r.Get("/analysis", handler.Analysis)
	r.Get("/raw", handler.Raw)
	r.Get("/raw/log", handler.RawLogCaptures)
	return r
}
