// Package memory is an in-process storage backend, used for tests and the "memory" storage mode.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/snoozzd/internal/store"
)

// watchBuffer bounds pending changes per watcher. Changes only trigger a
// full re-evaluation, so a full buffer drops the newest one.
const watchBuffer = 64

// Backend keeps values in a map guarded by a RWMutex.
type Backend struct {
	mu       sync.RWMutex
	values   map[string][]byte
	watchers map[int]chan store.Change
	nextID   int
	lastSet  time.Time
}

// New creates an empty backend.
func New() *Backend {
	return &Backend{
		values:   make(map[string][]byte),
		watchers: make(map[int]chan store.Change),
	}
}

// Get returns a copy of the stored value.
func (b *Backend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v, ok := b.values[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set replaces the value and notifies watchers.
func (b *Backend) Set(_ context.Context, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	old := b.values[key]
	b.values[key] = append([]byte(nil), value...)
	b.lastSet = time.Now()

	change := store.Change{Key: key, Old: old, New: append([]byte(nil), value...)}
	for _, ch := range b.watchers {
		select {
		case ch <- change:
		default:
		}
	}
	return nil
}

// Watch registers a watcher until ctx is done.
func (b *Backend) Watch(ctx context.Context) (<-chan store.Change, error) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	ch := make(chan store.Change, watchBuffer)
	b.watchers[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.watchers, id)
		close(ch)
		b.mu.Unlock()
	}()

	return ch, nil
}

// Ping always succeeds.
func (b *Backend) Ping(context.Context) error { return nil }

// Close is a no-op kept for the Backend contract.
func (b *Backend) Close() error { return nil }

// LastSet returns the time of the last write.
func (b *Backend) LastSet() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastSet
}

// Keys returns the number of stored keys.
func (b *Backend) Keys() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.values)
}
