package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

const backendPebble = "pebble"

// PebbleStore is a KV over an embedded Pebble LSM. SetMany commits one batch.
type PebbleStore struct {
	mu       sync.Mutex
	db       *pebble.DB
	maxBytes int64
}

// OpenPebble opens (or creates) a Pebble db at path. An empty path uses an in-memory filesystem.
func OpenPebble(path string, maxBytes int64) (*PebbleStore, error) {
	opts := &pebble.Options{}
	if path == "" {
		opts.FS = vfs.NewMem()
		path = "cache"
	}
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, wrap(backendPebble, "open", fmt.Errorf("pebble open: %w", err))
	}
	return &PebbleStore{db: db, maxBytes: maxBytes}, nil
}

// Get returns a copy of the value for key, or ErrNotFound.
func (s *PebbleStore) Get(key string) ([]byte, error) {
	data, closer, err := s.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrap(backendPebble, "get", err)
	}
	defer closer.Close()
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// SetMany checks the quota and writes all entries in one synced batch.
func (s *PebbleStore) SetMany(entries ...Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxBytes > 0 {
		sizes, err := s.sizes()
		if err != nil {
			return wrap(backendPebble, "set", err)
		}
		if exceedsQuota(s.maxBytes, sizes, entries) {
			return wrap(backendPebble, "set", ErrQuotaExceeded)
		}
	}
	batch := s.db.NewBatch()
	defer batch.Close()
	for _, e := range entries {
		if err := batch.Set([]byte(e.Key), e.Value, nil); err != nil {
			return wrap(backendPebble, "set", err)
		}
	}
	return wrap(backendPebble, "set", batch.Commit(pebble.Sync))
}

// Delete removes keys; missing keys are ignored.
func (s *PebbleStore) Delete(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.db.NewBatch()
	defer batch.Close()
	for _, k := range keys {
		if err := batch.Delete([]byte(k), nil); err != nil {
			return wrap(backendPebble, "delete", err)
		}
	}
	return wrap(backendPebble, "delete", batch.Commit(pebble.Sync))
}

// Close closes the underlying db.
func (s *PebbleStore) Close() error {
	return wrap(backendPebble, "close", s.db.Close())
}

func (s *PebbleStore) sizes() (map[string]int64, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	sizes := make(map[string]int64)
	for iter.First(); iter.Valid(); iter.Next() {
		sizes[string(iter.Key())] = int64(len(iter.Value()))
	}
	return sizes, iter.Error()
}
