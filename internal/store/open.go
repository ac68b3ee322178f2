package store

import "fmt"

// Backend names accepted by Open.
const (
	BackendMemory = backendMemory
	BackendFile   = backendFile
	BackendBadger = backendBadger
	BackendPebble = backendPebble
)

// Open builds the KV named by backend. path is ignored by the memory backend.
func Open(backend, path string, maxBytes int64) (KV, error) {
	switch backend {
	case "", BackendMemory:
		return NewMemoryStore(maxBytes), nil
	case BackendFile:
		return NewFSStore(path, maxBytes)
	case BackendBadger:
		return OpenBadger(path, maxBytes)
	case BackendPebble:
		return OpenPebble(path, maxBytes)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
