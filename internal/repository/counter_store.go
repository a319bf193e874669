package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CounterStore hands out monotonically increasing values for named counters.
// Next must be atomic: no two concurrent callers may observe the same value
// for the same key. A counter that does not exist yet is seeded so that the
// first value returned is seed+1.
type CounterStore interface {
	Next(ctx context.Context, key string, seed int64) (int64, error)
}

type postgresCounterStore struct {
	pool *pgxpool.Pool
}

// NewCounterStore returns a Postgres-backed counter store.
func NewCounterStore(pool *pgxpool.Pool) CounterStore {
	return &postgresCounterStore{pool: pool}
}

// Next increments and reads the counter in a single statement. The upsert is
// the concurrency primitive here: a separate read followed by a write would
// lose updates under concurrent allocation.
func (s *postgresCounterStore) Next(ctx context.Context, key string, seed int64) (int64, error) {
	const query = `
        INSERT INTO counters (key, value) VALUES ($1, $2 + 1)
        ON CONFLICT (key) DO UPDATE SET value = counters.value + 1
        RETURNING value`

	var value int64
	if err := s.pool.QueryRow(ctx, query, key, seed).Scan(&value); err != nil {
		return 0, err
	}
	return value, nil
}
