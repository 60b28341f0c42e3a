// Package store provides the persistence layer for engine state: behavior
// profiles, extension profiles, and block records survive restarts through a
// small key/value interface with SQLite and in-memory implementations.
package store

import "errors"

// ErrNotFound is returned by Get when no value exists for the key.
var ErrNotFound = errors.New("store: key not found")

// Store is a namespaced key/value store. Values are opaque byte slices;
// callers own serialization. Implementations must be safe for concurrent use.
type Store interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
	// List returns all keys with the given prefix, in unspecified order.
	List(prefix string) ([]string, error)
	Close() error
}
