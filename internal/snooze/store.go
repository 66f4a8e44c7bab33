// Package snooze owns the canonical list of snoozed items and the use-cases that create them.
package snooze

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/MrSnakeDoc/snoozzd/internal/domain"
	"github.com/MrSnakeDoc/snoozzd/internal/store"
)

// Store is the Snooze Record Store. Every mutation rewrites the whole
// collection through the backend; callers never see a partial write.
type Store struct {
	backend  store.Backend
	defaults domain.Options

	// mu serialises read-modify-write cycles within this process.
	mu sync.Mutex
}

// NewStore creates a record store over backend. defaults fill option fields
// the stored object does not carry.
func NewStore(backend store.Backend, defaults domain.Options) *Store {
	return &Store{
		backend:  backend,
		defaults: defaults,
	}
}

// List returns all items, or only those whose id is in ids.
func (s *Store) List(ctx context.Context, ids ...string) ([]*domain.Item, error) {
	items, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return items, nil
	}

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	found := make([]*domain.Item, 0, len(ids))
	for _, it := range items {
		if want[it.ID] {
			found = append(found, it)
		}
	}
	return found, nil
}

// Get returns one item or domain.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*domain.Item, error) {
	items, err := s.List(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}
	return items[0], nil
}

// Upsert inserts item, or replaces the item with the same id in place.
func (s *Store) Upsert(ctx context.Context, item *domain.Item) error {
	return s.Mutate(ctx, func(items []*domain.Item) ([]*domain.Item, error) {
		for i, it := range items {
			if it.ID == item.ID {
				items[i] = item
				return items, nil
			}
		}
		return append(items, item), nil
	})
}

// ReplaceAll atomically replaces the whole collection.
func (s *Store) ReplaceAll(ctx context.Context, items []*domain.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, items)
}

// Mutate loads the collection, applies fn and persists the result while
// holding the store lock. An error from fn aborts without writing.
func (s *Store) Mutate(ctx context.Context, fn func(items []*domain.Item) ([]*domain.Item, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		return err
	}
	next, err := fn(items)
	if err != nil {
		return err
	}
	return s.save(ctx, next)
}

// Delete removes the items with the given ids and reports how many were removed.
func (s *Store) Delete(ctx context.Context, ids ...string) (int, error) {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	removed := 0
	err := s.Mutate(ctx, func(items []*domain.Item) ([]*domain.Item, error) {
		kept := items[:0]
		for _, it := range items {
			if drop[it.ID] {
				removed++
				continue
			}
			kept = append(kept, it)
		}
		return kept, nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// Options returns the stored options merged over the defaults.
func (s *Store) Options(ctx context.Context) (domain.Options, error) {
	data, err := s.backend.Get(ctx, domain.KeyOptions)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return s.defaults, fmt.Errorf("%w: %w", domain.ErrStorageFailure, err)
	}
	return domain.DecodeOptions(s.defaults, data)
}

// SaveOptions persists opts as a whole.
func (s *Store) SaveOptions(ctx context.Context, opts domain.Options) error {
	data, err := json.Marshal(opts)
	if err != nil {
		return fmt.Errorf("failed to marshal options: %w", err)
	}
	if err := s.backend.Set(ctx, domain.KeyOptions, data); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorageFailure, err)
	}
	return nil
}

// EnsureDefaults creates an empty collection when none exists and rewrites
// the options with every default filled in.
func (s *Store) EnsureDefaults(ctx context.Context) error {
	s.mu.Lock()
	_, err := s.backend.Get(ctx, domain.KeySnoozed)
	switch {
	case errors.Is(err, store.ErrNotFound):
		err = s.save(ctx, nil)
	case err != nil:
		err = fmt.Errorf("%w: %w", domain.ErrStorageFailure, err)
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}

	opts, err := s.Options(ctx)
	if err != nil {
		return err
	}
	return s.SaveOptions(ctx, opts)
}

func (s *Store) load(ctx context.Context) ([]*domain.Item, error) {
	data, err := s.backend.Get(ctx, domain.KeySnoozed)
	if errors.Is(err, store.ErrNotFound) {
		return []*domain.Item{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStorageFailure, err)
	}
	return Decode(data)
}

func (s *Store) save(ctx context.Context, items []*domain.Item) error {
	if items == nil {
		items = []*domain.Item{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal items: %w", err)
	}
	if err := s.backend.Set(ctx, domain.KeySnoozed, data); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorageFailure, err)
	}
	return nil
}

// Decode parses a stored collection, as carried by store.Change values.
func Decode(data []byte) ([]*domain.Item, error) {
	items := []*domain.Item{}
	if len(data) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode snoozed items: %w", err)
	}
	return items, nil
}
