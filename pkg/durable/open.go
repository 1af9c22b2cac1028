package durable

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/tenantsync/pkg/pg"
	"github.com/dmitrymomot/tenantsync/pkg/redis"
)

// Open connects the backend named by cfg.Backend and returns it with a
// readiness check. The check is nil for the memory backend.
func Open(ctx context.Context, cfg Config, redisCfg redis.Config, pgCfg pg.Config, log *slog.Logger) (Store, func(context.Context) error, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemory(cfg.MemoryCapacity), nil, nil
	case BackendRedis:
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return nil, nil, err
		}
		return NewRedis(client, redisCfg.KeyPrefix), redis.Healthcheck(client), nil
	case BackendPostgres:
		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return NewPostgres(pool), pg.Healthcheck(pool), nil
	default:
		return nil, nil, errors.Join(ErrUnknownDriver, fmt.Errorf("backend %q", cfg.Backend))
	}
}
