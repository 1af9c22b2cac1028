// Package durable provides the server-side key-value storage the tenant
// resolver uses as its third source.
//
// A Store is partitioned by scope; Scope binds it to one scope and the result
// satisfies tenant.DurableStorage. ForUser scopes by the session's user id and
// plugs directly into tenant.Sources:
//
//	store := durable.NewRedis(client, "tenantsync")
//	mw := tenant.Middleware(resolver, tenant.Sources{
//		Durable: durable.ForUser(store),
//		// ...
//	})
//
// Backends: Memory (bounded LRU, process-local), Redis (no expiry) and
// Postgres (table durable_values, see pkg/pg migrations).
package durable
