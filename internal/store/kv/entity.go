package kv

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/canlabel/labeler-station/internal/store"
)

// entity provides typed JSON reads and writes under a key prefix.
// All methods run inside a caller-provided transaction so multi-key
// writes commit atomically.
type entity[T any] struct {
	prefix string
}

func newEntity[T any](prefix string) *entity[T] {
	return &entity[T]{prefix: prefix}
}

func (e *entity[T]) key(id string) []byte {
	return []byte(e.prefix + id)
}

func (e *entity[T]) indexKey(name string, parts ...string) []byte {
	k := e.prefix + "idx:" + name + ":"
	for i, p := range parts {
		if i > 0 {
			k += ":"
		}
		k += p
	}
	return []byte(k)
}

// exists reports whether key is present.
func exists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check key: %w", err)
}

// get returns store.ErrNotFound when the entity is missing.
func (e *entity[T]) get(txn *badger.Txn, id string) (*T, error) {
	item, err := txn.Get(e.key(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}

	var v T
	err = item.Value(func(val []byte) error {
		if err := json.Unmarshal(val, &v); err != nil {
			return fmt.Errorf("failed to unmarshal %s: %w", e.prefix, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (e *entity[T]) put(txn *badger.Txn, id string, v *T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", e.prefix, err)
	}
	if err := txn.Set(e.key(id), data); err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}
	return nil
}

// list decodes every primary entry under the prefix, skipping index keys.
func (e *entity[T]) list(txn *badger.Txn) ([]*T, error) {
	prefix := []byte(e.prefix)
	idxPrefix := e.prefix + "idx:"

	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	var out []*T
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		if len(item.Key()) >= len(idxPrefix) && string(item.Key()[:len(idxPrefix)]) == idxPrefix {
			continue
		}
		var v T
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &v)
		}); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", item.Key(), err)
		}
		out = append(out, &v)
	}
	return out, nil
}

// indexValues walks an index prefix and returns the stored ids in key order.
func indexValues(txn *badger.Txn, prefix []byte, reverse bool, limit int) ([]string, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Reverse = reverse
	opts.Prefix = prefix

	it := txn.NewIterator(opts)
	defer it.Close()

	seek := prefix
	if reverse {
		// Reverse iteration starts at the largest key <= seek.
		seek = append(append([]byte{}, prefix...), 0xFF)
	}

	var ids []string
	for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
		val, err := it.Item().ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		ids = append(ids, string(val))
		if limit > 0 && len(ids) >= limit {
			break
		}
	}
	return ids, nil
}
