// Package store defines the key-value storage collaborator the engine persists into.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key was never written.
var ErrNotFound = errors.New("key not found")

// Change is emitted after every successful Set.
type Change struct {
	Key string `json:"key"`
	Old []byte `json:"old,omitempty"`
	New []byte `json:"new"`
}

// Backend is a key-value store with change notifications.
// A Set is visible to Get before its Change is delivered to watchers.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Watch streams changes until ctx is done; the channel is then closed.
	Watch(ctx context.Context) (<-chan Change, error)
	Ping(ctx context.Context) error
	Close() error
}
