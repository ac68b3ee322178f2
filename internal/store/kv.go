package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Get when the key has no value.
	ErrNotFound = errors.New("store: key not found")
	// ErrQuotaExceeded is returned when a write would push the store past its byte quota.
	ErrQuotaExceeded = errors.New("store: quota exceeded")
)

// Entry is one key/value pair in a batched write.
type Entry struct {
	Key   string
	Value []byte
}

// KV is the persistent key/value store behind the match cache.
// SetMany applies entries as one unit where the backend supports it.
type KV interface {
	Get(key string) ([]byte, error)
	SetMany(entries ...Entry) error
	Delete(keys ...string) error
	Close() error
}

// StorageError wraps a backend failure with the operation that caused it.
type StorageError struct {
	Backend string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func wrap(backend, op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Backend: backend, Op: op, Err: err}
}

// IsQuotaExceeded reports whether err is a quota failure from any backend.
func IsQuotaExceeded(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}

// exceedsQuota computes the store size after replacing the given entries.
// sizes maps current keys to their stored value length.
func exceedsQuota(maxBytes int64, sizes map[string]int64, entries []Entry) bool {
	if maxBytes <= 0 {
		return false
	}
	var total int64
	for _, n := range sizes {
		total += n
	}
	for _, e := range entries {
		total -= sizes[e.Key]
		total += int64(len(e.Value))
	}
	return total > maxBytes
}
