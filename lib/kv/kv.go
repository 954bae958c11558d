// Package kv provides durable string-keyed blob storage used for
// conversation histories, rate limit records and client flags. The core
// only relies on get/set/delete semantics, not a particular engine.
package kv

import "errors"

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("kv: key not found")

// Store is a durable string-keyed blob store.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}
