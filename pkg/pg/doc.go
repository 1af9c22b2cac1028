// Package pg connects to the PostgreSQL database backing the durable tenant
// store and keeps its schema current.
//
// Connect opens a pgx pool with retries, Migrate applies the goose migrations
// embedded in this package (the durable_values table), and Healthcheck feeds
// the service's /healthz endpoint:
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
//		return err
//	}
//	store := durable.NewPostgres(pool)
package pg
