package store

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	gojson "github.com/goccy/go-json"
)

func backends(t *testing.T) map[string]func(maxBytes int64) KV {
	t.Helper()
	return map[string]func(int64) KV{
		"memory": func(max int64) KV { return NewMemoryStore(max) },
		"file": func(max int64) KV {
			s, err := NewFSStore(t.TempDir(), max)
			if err != nil {
				t.Fatalf("fs store: %v", err)
			}
			return s
		},
		"badger": func(max int64) KV {
			s, err := OpenBadger("", max)
			if err != nil {
				t.Fatalf("badger store: %v", err)
			}
			return s
		},
		"pebble": func(max int64) KV {
			s, err := OpenPebble("", max)
			if err != nil {
				t.Fatalf("pebble store: %v", err)
			}
			return s
		},
	}
}

func TestKVRoundTrip(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			kv := open(0)
			defer kv.Close()

			if _, err := kv.Get("missing"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			if err := kv.SetMany(Entry{Key: "a", Value: []byte("one")}, Entry{Key: "b", Value: []byte("two")}); err != nil {
				t.Fatalf("set: %v", err)
			}
			got, err := kv.Get("a")
			if err != nil || !bytes.Equal(got, []byte("one")) {
				t.Fatalf("unexpected a=%q err=%v", got, err)
			}
			if err := kv.SetMany(Entry{Key: "a", Value: []byte("uno")}); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			if got, _ := kv.Get("a"); string(got) != "uno" {
				t.Fatalf("expected overwrite, got %q", got)
			}
			if err := kv.Delete("a", "b", "never-set"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, err := kv.Get("b"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected b deleted, got %v", err)
			}
		})
	}
}

func TestKVQuota(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			kv := open(10)
			defer kv.Close()

			if err := kv.SetMany(Entry{Key: "other", Value: []byte("123456")}); err != nil {
				t.Fatalf("seed: %v", err)
			}
			err := kv.SetMany(Entry{Key: "data", Value: []byte("12345")})
			if !IsQuotaExceeded(err) {
				t.Fatalf("expected quota error, got %v", err)
			}
			var se *StorageError
			if !errors.As(err, &se) {
				t.Fatalf("expected StorageError, got %T", err)
			}
			if _, err := kv.Get("data"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("rejected write must not land, got %v", err)
			}
			if err := kv.Delete("other"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if err := kv.SetMany(Entry{Key: "data", Value: []byte("12345")}); err != nil {
				t.Fatalf("expected write to fit after delete: %v", err)
			}
		})
	}
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	s := NewMemoryStore(0)
	v := []byte("abc")
	_ = s.SetMany(Entry{Key: "k", Value: v})
	v[0] = 'z'
	got, _ := s.Get("k")
	got[1] = 'z'
	again, _ := s.Get("k")
	if string(again) != "abc" {
		t.Fatalf("expected stored value isolated, got %q", again)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 key, got %d", s.Len())
	}
}

func TestNewFSStoreRequiresPath(t *testing.T) {
	if _, err := NewFSStore("  ", 0); err == nil {
		t.Fatalf("expected error for blank path")
	}
}

func TestOpenBackends(t *testing.T) {
	kv, err := Open("", "", 0)
	if err != nil {
		t.Fatalf("open default: %v", err)
	}
	if _, ok := kv.(*MemoryStore); !ok {
		t.Fatalf("expected memory store by default, got %T", kv)
	}
	fs, err := Open(BackendFile, t.TempDir(), 0)
	if err != nil {
		t.Fatalf("open file: %v", err)
	}
	if _, ok := fs.(*FSStore); !ok {
		t.Fatalf("expected fs store, got %T", fs)
	}
	if _, err := Open("redis", "", 0); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestFSStoreBatchLeavesNoJournal(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFSStore(dir, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.SetMany(Entry{Key: "payload", Value: []byte("p1")}, Entry{Key: "savedAt", Value: []byte("t1")}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, journalName)); !os.IsNotExist(err) {
		t.Fatalf("expected journal removed after apply, stat err=%v", err)
	}
}

func TestFSStoreReplaysInterruptedBatchOnOpen(t *testing.T) {
	dir := t.TempDir()
	// Crash after the first key landed: new payload beside an old timestamp.
	if err := os.WriteFile(filepath.Join(dir, "payload"), []byte("p2"), 0o644); err != nil {
		t.Fatalf("seed payload: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "savedAt"), []byte("t1"), 0o644); err != nil {
		t.Fatalf("seed savedAt: %v", err)
	}
	journal, err := gojson.Marshal([]Entry{
		{Key: "payload", Value: []byte("p2")},
		{Key: "savedAt", Value: []byte("t2")},
	})
	if err != nil {
		t.Fatalf("marshal journal: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, journalName), journal, 0o644); err != nil {
		t.Fatalf("seed journal: %v", err)
	}

	s, err := NewFSStore(dir, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if got, _ := s.Get("payload"); string(got) != "p2" {
		t.Fatalf("expected payload p2, got %q", got)
	}
	if got, _ := s.Get("savedAt"); string(got) != "t2" {
		t.Fatalf("expected savedAt t2 paired with payload, got %q", got)
	}
	if _, err := os.Stat(filepath.Join(dir, journalName)); !os.IsNotExist(err) {
		t.Fatalf("expected journal removed after replay, stat err=%v", err)
	}
}

func TestFSStoreDropsUnreadableJournal(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "payload"), []byte("p1"), 0o644); err != nil {
		t.Fatalf("seed payload: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, journalName), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed journal: %v", err)
	}
	s, err := NewFSStore(dir, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if got, _ := s.Get("payload"); string(got) != "p1" {
		t.Fatalf("expected payload untouched, got %q", got)
	}
}
