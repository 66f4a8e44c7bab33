// Package postgres stores collections in a single key/value table and uses
// LISTEN/NOTIFY for change notifications.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrSnakeDoc/snoozzd/internal/logger"
	"github.com/MrSnakeDoc/snoozzd/internal/store"
	"github.com/MrSnakeDoc/snoozzd/internal/store/connect"
)

const channel = "snoozz_changes"

const (
	createTable = `CREATE TABLE IF NOT EXISTS snoozz_kv (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	selectValue = `SELECT value FROM snoozz_kv WHERE key = $1`
	upsertValue = `INSERT INTO snoozz_kv (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	notifyKey = `SELECT pg_notify($1, $2)`
)

type Store struct {
	pool *pgxpool.Pool
}

// Open connects, waits for the server per retry and creates the table if needed.
func Open(ctx context.Context, dsn string, retry connect.Policy, log logger.Logger) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	target := fmt.Sprintf("%s:%d/%s", cfg.ConnConfig.Host, cfg.ConnConfig.Port, cfg.ConnConfig.Database)
	if err := connect.Wait(ctx, "postgres", target, pool.Ping, retry, log); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, createTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create snoozz_kv: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.pool.QueryRow(ctx, selectValue, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, nil
}

// Set upserts the value and notifies in one transaction; NOTIFY is delivered on commit.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, upsertValue, key, value); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, notifyKey, channel, key)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Watch holds one pooled connection in LISTEN mode until ctx is done.
func (s *Store) Watch(ctx context.Context) (<-chan store.Change, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire listen connection: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+channel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to listen on %s: %w", channel, err)
	}

	out := make(chan store.Change, 16)
	go func() {
		defer close(out)
		defer conn.Release()

		last := make(map[string][]byte)
		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				return
			}
			value, err := s.Get(ctx, n.Payload)
			if err != nil {
				continue
			}
			change := store.Change{Key: n.Payload, Old: last[n.Payload], New: value}
			last[n.Payload] = value

			select {
			case out <- change:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
