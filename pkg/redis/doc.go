// Package redis connects to the Redis server backing the durable tenant store.
//
// Connect retries until the server answers PING, and Healthcheck plugs the
// client into the service's /healthz endpoint:
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	store := durable.NewRedis(client, cfg.KeyPrefix)
//	checks["redis"] = redis.Healthcheck(client)
//
// Config is populated from environment variables (REDIS_URL and friends) with
// pkg/config.
package redis
