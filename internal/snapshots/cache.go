package snapshots

import (
	"errors"
	"log/slog"
	"time"

	"github.com/preston-bernstein/tennis-live-feed/internal/domain/matches"
	"github.com/preston-bernstein/tennis-live-feed/internal/envelope"
	"github.com/preston-bernstein/tennis-live-feed/internal/logging"
	"github.com/preston-bernstein/tennis-live-feed/internal/store"
	"github.com/preston-bernstein/tennis-live-feed/internal/timeutil"
)

// Store keys for the cached collection and its save time.
const (
	DataKey      = "tennis_matches_data"
	TimestampKey = "tennis_matches_timestamp"
)

// DefaultMaxAge bounds how old a cached collection may be and still load.
const DefaultMaxAge = 7 * 24 * time.Hour

// Save outcomes reported to the SaveRecorder.
const (
	SaveOK        = "ok"
	SaveSkipped   = "skipped"
	SaveRetried   = "retried"
	SaveFailed    = "failed"
	SaveEncodeErr = "encode_error"
)

// SaveRecorder observes Save outcomes (typically metrics).
type SaveRecorder interface {
	RecordCacheSave(result string)
}

// Entry is a fresh cached collection and the time it was saved.
type Entry struct {
	Matches []matches.Snapshot
	SavedAt time.Time
}

// Cache mirrors the committed match collection into a KV store so a restart
// can show the last known state before the network answers.
type Cache struct {
	kv       store.KV
	maxAge   time.Duration
	logger   *slog.Logger
	recorder SaveRecorder
	now      func() time.Time
}

// NewCache wraps kv. maxAge <= 0 uses DefaultMaxAge; recorder may be nil.
func NewCache(kv store.KV, maxAge time.Duration, logger *slog.Logger, recorder SaveRecorder) *Cache {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Cache{
		kv:       kv,
		maxAge:   maxAge,
		logger:   logger,
		recorder: recorder,
		now:      time.Now,
	}
}

// Load returns the cached collection iff it exists, parses, and is fresh.
func (c *Cache) Load() ([]matches.Snapshot, bool) {
	entry, ok := c.LoadEntry()
	if !ok {
		return nil, false
	}
	return entry.Matches, true
}

// LoadEntry is Load plus the save time of the entry.
func (c *Cache) LoadEntry() (Entry, bool) {
	if c == nil || c.kv == nil {
		return Entry{}, false
	}
	data, err := c.kv.Get(DataKey)
	if err != nil {
		c.logMissing("data", err)
		return Entry{}, false
	}
	rawTS, err := c.kv.Get(TimestampKey)
	if err != nil {
		c.logMissing("timestamp", err)
		return Entry{}, false
	}
	savedAt, err := timeutil.ParseUnixMillis(string(rawTS))
	if err != nil {
		logging.Warn(c.logger, "cached timestamp malformed", "error", err)
		return Entry{}, false
	}
	if c.now().Sub(savedAt) >= c.maxAge {
		logging.Info(c.logger, "cached matches too old, ignoring", "saved_at", savedAt.UTC().Format(time.RFC3339))
		return Entry{}, false
	}
	list, err := envelope.DecodeSnapshots(data)
	if err != nil {
		logging.Warn(c.logger, "cached matches unreadable", "error", err)
		return Entry{}, false
	}
	logging.Info(c.logger, "loaded cached matches", logging.FieldCount, len(list))
	return Entry{Matches: list, SavedAt: savedAt}, true
}

// Save persists list with the current time. Empty collections are never written.
// On a quota failure both keys are cleared and the write is retried once.
// Failures are logged, never returned.
func (c *Cache) Save(list []matches.Snapshot) {
	if c == nil || c.kv == nil {
		return
	}
	if len(list) == 0 {
		logging.Warn(c.logger, "not saving empty match collection")
		c.record(SaveSkipped)
		return
	}
	data, err := envelope.EncodeSnapshots(list)
	if err != nil {
		logging.Error(c.logger, "encode matches for cache", err)
		c.record(SaveEncodeErr)
		return
	}
	entries := []store.Entry{
		{Key: DataKey, Value: data},
		{Key: TimestampKey, Value: []byte(timeutil.FormatUnixMillis(c.now()))},
	}

	err = c.kv.SetMany(entries...)
	if err == nil {
		logging.Debug(c.logger, "saved matches to cache", logging.FieldCount, len(list))
		c.record(SaveOK)
		return
	}
	if !store.IsQuotaExceeded(err) {
		logging.Error(c.logger, "save matches to cache", err)
		c.record(SaveFailed)
		return
	}

	logging.Warn(c.logger, "cache quota exceeded, clearing", "error", err)
	if derr := c.kv.Delete(DataKey, TimestampKey); derr != nil {
		logging.Error(c.logger, "clear cache after quota error", derr)
	}
	if err := c.kv.SetMany(entries...); err != nil {
		c.record(SaveFailed)
		return
	}
	c.record(SaveRetried)
}

func (c *Cache) logMissing(what string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	logging.Warn(c.logger, "read cached "+what, "error", err)
}

func (c *Cache) record(result string) {
	if c.recorder != nil {
		c.recorder.RecordCacheSave(result)
	}
}
