package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	gojson "github.com/goccy/go-json"
)

const (
	backendFile = "file"
	journalName = "batch.journal"
)

// FSStore keeps one file per key under basePath. Multi-key batches are first
// written to a journal file; a journal left behind by a crash is replayed on open,
// so readers never see half of a batch after restart.
type FSStore struct {
	mu       sync.Mutex
	basePath string
	maxBytes int64
}

// NewFSStore constructs a file-backed store rooted at basePath.
func NewFSStore(basePath string, maxBytes int64) (*FSStore, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, wrap(backendFile, "open", errors.New("base path required"))
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, wrap(backendFile, "open", err)
	}
	s := &FSStore{basePath: basePath, maxBytes: maxBytes}
	if err := s.replayJournal(); err != nil {
		return nil, wrap(backendFile, "open", err)
	}
	return s, nil
}

// BasePath exposes the store root (primarily for testing).
func (s *FSStore) BasePath() string {
	if s == nil {
		return ""
	}
	return s.basePath
}

func (s *FSStore) path(key string) string {
	return filepath.Join(s.basePath, filepath.Base(key))
}

// Get reads the file for key.
func (s *FSStore) Get(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, wrap(backendFile, "get", err)
	}
	return data, nil
}

// SetMany writes a single entry directly and larger batches through the journal.
func (s *FSStore) SetMany(entries ...Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sizes, err := s.sizes()
	if err != nil {
		return wrap(backendFile, "set", err)
	}
	if exceedsQuota(s.maxBytes, sizes, entries) {
		return wrap(backendFile, "set", ErrQuotaExceeded)
	}
	switch len(entries) {
	case 0:
		return nil
	case 1:
		if err := s.writeFile(entries[0]); err != nil {
			return wrap(backendFile, "set", err)
		}
		return nil
	}
	if err := s.writeJournal(entries); err != nil {
		return wrap(backendFile, "set", err)
	}
	if err := s.applyJournal(entries); err != nil {
		return wrap(backendFile, "set", err)
	}
	return nil
}

// Delete removes the files for keys; missing files are ignored.
func (s *FSStore) Delete(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		if err := os.Remove(s.path(k)); err != nil && !os.IsNotExist(err) {
			return wrap(backendFile, "delete", err)
		}
	}
	return nil
}

// Close is a no-op.
func (s *FSStore) Close() error {
	return nil
}

func (s *FSStore) sizes() (map[string]int64, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, err
	}
	sizes := make(map[string]int64, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) == ".tmp" || e.Name() == journalName {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		sizes[e.Name()] = info.Size()
	}
	return sizes, nil
}

func (s *FSStore) writeFile(e Entry) error {
	target := s.path(e.Key)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, e.Value, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, target)
}

func (s *FSStore) writeJournal(entries []Entry) error {
	data, err := gojson.Marshal(entries)
	if err != nil {
		return err
	}
	target := filepath.Join(s.basePath, journalName)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, target)
}

// applyJournal writes every entry, then drops the journal.
func (s *FSStore) applyJournal(entries []Entry) error {
	for _, e := range entries {
		if err := s.writeFile(e); err != nil {
			return err
		}
	}
	return os.Remove(filepath.Join(s.basePath, journalName))
}

func (s *FSStore) replayJournal() error {
	data, err := os.ReadFile(filepath.Join(s.basePath, journalName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var entries []Entry
	if err := gojson.Unmarshal(data, &entries); err != nil {
		// Unreadable journal; the batch never started applying.
		return os.Remove(filepath.Join(s.basePath, journalName))
	}
	return s.applyJournal(entries)
}
