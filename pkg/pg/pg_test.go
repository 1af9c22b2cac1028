package pg_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantsync/pkg/logger"
	"github.com/dmitrymomot/tenantsync/pkg/pg"
)

func TestConnect_Config(t *testing.T) {
	t.Parallel()

	_, err := pg.Connect(context.Background(), pg.Config{})
	assert.ErrorIs(t, err, pg.ErrEmptyConnectionString)

	_, err = pg.Connect(context.Background(), pg.Config{ConnectionString: "postgres://%zz"})
	assert.ErrorIs(t, err, pg.ErrFailedToParseDBConfig)
}

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()

	assert.False(t, pg.IsNotFoundError(nil))
	assert.False(t, pg.IsNotFoundError(assert.AnError))
}

func TestMigrate_Live(t *testing.T) {
	dsn := os.Getenv("PG_CONN_URL")
	if dsn == "" {
		t.Skip("PG_CONN_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := pg.Config{ConnectionString: dsn, RetryAttempts: 1}
	pool, err := pg.Connect(ctx, cfg)
	require.NoError(t, err)
	defer pool.Close()

	var log *slog.Logger = logger.Discard()
	require.NoError(t, pg.Migrate(ctx, pool, cfg, log))
	// Second run is a no-op.
	require.NoError(t, pg.Migrate(ctx, pool, cfg, log))
	assert.NoError(t, pg.Healthcheck(pool)(ctx))

	var exists bool
	require.NoError(t, pool.QueryRow(ctx, "SELECT to_regclass('durable_values') IS NOT NULL").Scan(&exists))
	assert.True(t, exists)
}
