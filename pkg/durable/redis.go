package durable

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Redis stores values as plain string keys without expiry.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis creates a Redis store. Keys are "<prefix>:durable:<scope>:<key>";
// an empty prefix defaults to "tenantsync".
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "tenantsync"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) redisKey(scope, key string) string {
	return strings.Join([]string{r.prefix, "durable", scope, key}, ":")
}

// Get returns the value under scope and key or ErrNotFound.
func (r *Redis) Get(ctx context.Context, scope, key string) (string, error) {
	v, err := r.client.Get(ctx, r.redisKey(scope, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", errors.Join(ErrStoreFailed, err)
	}
	return v, nil
}

// Set stores value under scope and key without expiry.
func (r *Redis) Set(ctx context.Context, scope, key, value string) error {
	if err := r.client.Set(ctx, r.redisKey(scope, key), value, 0).Err(); err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
