package server

import (
	"log/slog"

	"github.com/preston-bernstein/tennis-live-feed/internal/config"
	"github.com/preston-bernstein/tennis-live-feed/internal/metrics"
	"github.com/preston-bernstein/tennis-live-feed/internal/snapshots"
	"github.com/preston-bernstein/tennis-live-feed/internal/store"
)

type cacheComponents struct {
	kv    store.KV
	cache *snapshots.Cache
}

// buildCache opens the configured backend, falling back to memory when it fails to open.
func buildCache(cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder) cacheComponents {
	kv, err := store.Open(cfg.Cache.Backend, cfg.Cache.Path, cfg.Cache.MaxBytes)
	if err != nil {
		if logger != nil {
			logger.Warn("cache backend unavailable, using memory",
				slog.String("backend", cfg.Cache.Backend),
				slog.String("path", cfg.Cache.Path),
				"err", err,
			)
		}
		kv = store.NewMemoryStore(cfg.Cache.MaxBytes)
	}

	var saveRecorder snapshots.SaveRecorder
	if recorder != nil {
		saveRecorder = recorder
	}
	return cacheComponents{
		kv:    kv,
		cache: snapshots.NewCache(kv, cfg.Cache.MaxAge, logger, saveRecorder),
	}
}
