package durable

import (
	"context"
	"net/http"

	"github.com/dmitrymomot/tenantsync/pkg/tenant"
)

// Store is server-side key-value storage partitioned by scope.
// Values survive process restarts for every backend except Memory.
type Store interface {
	// Get returns ErrNotFound when scope holds no value under key.
	Get(ctx context.Context, scope, key string) (string, error)
	Set(ctx context.Context, scope, key, value string) error
	Close() error
}

// Scoped is a Store bound to one scope. It implements tenant.DurableStorage.
type Scoped struct {
	store Store
	scope string
}

// Scope binds store to scope.
func Scope(store Store, scope string) *Scoped {
	return &Scoped{store: store, scope: scope}
}

// Get reads key within the bound scope.
func (s *Scoped) Get(ctx context.Context, key string) (string, error) {
	if s.scope == "" {
		return "", ErrEmptyScope
	}
	return s.store.Get(ctx, s.scope, key)
}

// Set writes key within the bound scope.
func (s *Scoped) Set(ctx context.Context, key, value string) error {
	if s.scope == "" {
		return ErrEmptyScope
	}
	if key == "" {
		return ErrEmptyKey
	}
	return s.store.Set(ctx, s.scope, key, value)
}

// ForUser returns a tenant.DurableSource that scopes store to the session user,
// so one user's values are never visible to another.
func ForUser(store Store) tenant.DurableSource {
	return func(_ *http.Request, sess *tenant.Session) tenant.DurableStorage {
		return Scope(store, "user:"+sess.UserID)
	}
}
