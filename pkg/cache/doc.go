// Package cache provides a generic, bounded LRU map.
//
// LRU backs the in-memory durable store: every user scope gets a handful of
// keys, and the least recently touched entries are dropped once the configured
// capacity is reached. An eviction is equivalent to the value never having been
// written, which the tenant resolver treats as an absent location.
//
//	c := cache.NewLRU[string, string](10_000)
//	c.Put("user-1/tenantId", "550e8400-e29b-41d4-a716-446655440000")
//	v, ok := c.Get("user-1/tenantId")
//
// All methods are safe for concurrent use.
package cache
