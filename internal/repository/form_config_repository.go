package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const formConfigKey = "formConfig"

// FormConfigRepository stores the ticket form configuration document.
type FormConfigRepository interface {
	Get(ctx context.Context) (map[string]any, error)
	Upsert(ctx context.Context, updates map[string]any) (map[string]any, error)
}

type formConfigRepository struct {
	pool *pgxpool.Pool
}

// NewFormConfigRepository instantiates repository.
func NewFormConfigRepository(pool *pgxpool.Pool) FormConfigRepository {
	return &formConfigRepository{pool: pool}
}

// Get returns the stored configuration, or nil when none exists yet.
func (r *formConfigRepository) Get(ctx context.Context) (map[string]any, error) {
	const query = `SELECT value FROM app_config WHERE key=$1`
	var value map[string]any
	err := r.pool.QueryRow(ctx, query, formConfigKey).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Upsert merges the provided keys into the stored document and returns the
// merged result.
func (r *formConfigRepository) Upsert(ctx context.Context, updates map[string]any) (map[string]any, error) {
	current, err := r.Get(ctx)
	if err != nil {
		return nil, err
	}
	if current == nil {
		current = map[string]any{}
	}
	for k, v := range updates {
		current[k] = v
	}

	const query = `
        INSERT INTO app_config (key, value) VALUES ($1, $2)
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`
	if _, err := r.pool.Exec(ctx, query, formConfigKey, current); err != nil {
		return nil, err
	}
	return current, nil
}
