package durable

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	selectValue = `SELECT value FROM durable_values WHERE scope = $1 AND key = $2`
	upsertValue = `INSERT INTO durable_values (scope, key, value, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (scope, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
)

// Postgres stores values in the durable_values table created by pg.Migrate.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres store over pool. The table must already be migrated.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Get returns the value under scope and key or ErrNotFound.
func (p *Postgres) Get(ctx context.Context, scope, key string) (string, error) {
	var v string
	err := p.pool.QueryRow(ctx, selectValue, scope, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", errors.Join(ErrStoreFailed, err)
	}
	return v, nil
}

// Set inserts or replaces the value under scope and key.
func (p *Postgres) Set(ctx context.Context, scope, key, value string) error {
	if _, err := p.pool.Exec(ctx, upsertValue, scope, key, value); err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}

// Close closes the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
