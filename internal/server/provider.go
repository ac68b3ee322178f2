package server

import (
	"log/slog"
	"net/http"

	"github.com/preston-bernstein/tennis-live-feed/internal/config"
	"github.com/preston-bernstein/tennis-live-feed/internal/providers"
	"github.com/preston-bernstein/tennis-live-feed/internal/providers/fixture"
	"github.com/preston-bernstein/tennis-live-feed/internal/providers/tennisapi"
)

func selectProvider(cfg config.Config, logger *slog.Logger) providers.DataProvider {
	switch cfg.Provider {
	case "fixture":
		return fixture.New()
	case "tennisapi", "":
		return tennisapi.NewClient(tennisapi.Config{
			BaseURL:    cfg.Feed.APIBaseURL,
			HTTPClient: &http.Client{Timeout: cfg.Feed.FetchTimeout},
		})
	default:
		if logger != nil {
			logger.Warn("unknown provider, falling back to fixture", slog.String("provider", cfg.Provider))
		}
		return fixture.New()
	}
}
