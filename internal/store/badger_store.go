package store

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

const backendBadger = "badger"

// BadgerStore is a KV over an embedded BadgerDB. SetMany runs in one transaction.
type BadgerStore struct {
	db       *badger.DB
	maxBytes int64
}

// OpenBadger opens (or creates) a BadgerDB at path. An empty path opens an in-memory db.
func OpenBadger(path string, maxBytes int64) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, wrap(backendBadger, "open", fmt.Errorf("open badger db: %w", err))
	}
	return NewBadgerStoreFromDB(db, maxBytes), nil
}

// NewBadgerStoreFromDB wraps an already open BadgerDB.
func NewBadgerStoreFromDB(db *badger.DB, maxBytes int64) *BadgerStore {
	return &BadgerStore{db: db, maxBytes: maxBytes}
}

// Get returns a copy of the value for key, or ErrNotFound.
func (s *BadgerStore) Get(key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrap(backendBadger, "get", err)
	}
	return out, nil
}

// SetMany checks the quota and writes all entries in one transaction.
func (s *BadgerStore) SetMany(entries ...Entry) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if s.maxBytes > 0 {
			sizes, err := badgerSizes(txn)
			if err != nil {
				return err
			}
			if exceedsQuota(s.maxBytes, sizes, entries) {
				return ErrQuotaExceeded
			}
		}
		for _, e := range entries {
			if err := txn.Set([]byte(e.Key), e.Value); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, badger.ErrTxnTooBig) {
		err = fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	}
	return wrap(backendBadger, "set", err)
}

// Delete removes keys; missing keys are ignored.
func (s *BadgerStore) Delete(keys ...string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete([]byte(k)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}
		return nil
	})
	return wrap(backendBadger, "delete", err)
}

// Close closes the underlying db.
func (s *BadgerStore) Close() error {
	return wrap(backendBadger, "close", s.db.Close())
}

func badgerSizes(txn *badger.Txn) (map[string]int64, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	sizes := make(map[string]int64)
	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		sizes[string(item.KeyCopy(nil))] = item.ValueSize()
	}
	return sizes, nil
}
