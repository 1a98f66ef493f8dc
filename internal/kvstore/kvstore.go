// Package kvstore defines the whole-value key-value contract the incident
// repository persists through.
package kvstore

import "context"

// Store is a whole-value document store: values are read and written in
// their entirety, there is no partial update. Implementations must provide
// single-writer consistency per key — at most one in-flight Put mutates a
// key at a time. Callers own serialization of read-modify-write cycles.
type Store interface {
	// Get returns the value stored under key. The second return is false
	// when the key is absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error
}
