package durable

import (
	"context"

	"github.com/dmitrymomot/tenantsync/pkg/cache"
)

// DefaultMemoryCapacity bounds the number of values a Memory store keeps.
const DefaultMemoryCapacity = 100_000

// Memory is a process-local Store. Values are lost on restart and the least
// recently used ones are dropped once capacity is reached.
type Memory struct {
	lru *cache.LRU[memKey, string]
}

type memKey struct {
	scope string
	key   string
}

// NewMemory creates a Memory store. A non-positive capacity uses DefaultMemoryCapacity.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &Memory{lru: cache.NewLRU[memKey, string](capacity)}
}

// Get returns the value under scope and key or ErrNotFound.
func (m *Memory) Get(ctx context.Context, scope, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	v, ok := m.lru.Get(memKey{scope: scope, key: key})
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set stores value under scope and key.
func (m *Memory) Set(ctx context.Context, scope, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.lru.Put(memKey{scope: scope, key: key}, value)
	return nil
}

// Stats exposes the underlying cache counters.
func (m *Memory) Stats() cache.Stats {
	return m.lru.Stats()
}

// Close drops every stored value.
func (m *Memory) Close() error {
	m.lru.Clear()
	return nil
}
