package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/snoozzd/internal/store"
)

// Store persists collections as plain Redis strings and announces writes on ChangesChannel.
type Store struct {
	client  *redis.Client
	channel string
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client:  client,
		channel: ChangesChannel,
	}
}

// Get retrieves a collection by key
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, DataKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return data, nil
}

// Set writes the value and publishes the key in the same MULTI/EXEC block
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, DataKey(key), value, 0)
		pipe.Publish(ctx, s.channel, DataKey(key))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Watch subscribes to ChangesChannel. New values are read back after each
// notification; Old is the value this watcher saw last (nil the first time).
func (s *Store) Watch(ctx context.Context) (<-chan store.Change, error) {
	pubsub := s.client.Subscribe(ctx, s.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", s.channel, err)
	}

	out := make(chan store.Change, 16)
	go func() {
		defer close(out)
		defer func() { _ = pubsub.Close() }()

		last := make(map[string][]byte)
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				key, err := ExtractKey(msg.Payload)
				if err != nil {
					continue
				}
				value, err := s.Get(ctx, key)
				if err != nil {
					continue
				}
				change := store.Change{Key: key, Old: last[key], New: value}
				last[key] = value

				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the client
func (s *Store) Close() error {
	return s.client.Close()
}
