package store

import "sync"

const backendMemory = "memory"

// MemoryStore keeps values in memory. It backs tests and the "memory" cache backend.
type MemoryStore struct {
	mu       sync.RWMutex
	values   map[string][]byte
	maxBytes int64
}

// NewMemoryStore constructs an empty MemoryStore; maxBytes <= 0 disables the quota.
func NewMemoryStore(maxBytes int64) *MemoryStore {
	return &MemoryStore{
		values:   make(map[string][]byte),
		maxBytes: maxBytes,
	}
}

// Get returns a copy of the stored value.
func (s *MemoryStore) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// SetMany replaces all entries at once or none of them.
func (s *MemoryStore) SetMany(entries ...Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sizes := make(map[string]int64, len(s.values))
	for k, v := range s.values {
		sizes[k] = int64(len(v))
	}
	if exceedsQuota(s.maxBytes, sizes, entries) {
		return wrap(backendMemory, "set", ErrQuotaExceeded)
	}
	for _, e := range entries {
		v := make([]byte, len(e.Value))
		copy(v, e.Value)
		s.values[e.Key] = v
	}
	return nil
}

// Delete removes keys; missing keys are ignored.
func (s *MemoryStore) Delete(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
