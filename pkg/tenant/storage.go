package tenant

import (
	"context"
	"net/http"
	"time"
)

// DurableStorage is a string key-value store without expiry.
// Get returns ErrValueNotFound when the key is not set.
type DurableStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// CookieOptions are the attributes applied when the tenant cookie is written.
type CookieOptions struct {
	Path     string
	MaxAge   time.Duration
	SameSite http.SameSite
}

// CookieStore reads and writes named cookies for the current client.
// Get returns ErrValueNotFound when the cookie is not present.
type CookieStore interface {
	Get(name string) (string, error)
	Set(name, value string, opts CookieOptions) error
}

// RemoteService is the authoritative tenant record service.
// FetchByUser returns ErrTenantNotFound when the user has no record and
// ErrRemoteUnavailable when the service cannot be reached.
// Upsert must be idempotent: it is delivered at least once.
type RemoteService interface {
	FetchByUser(ctx context.Context, userID string) (string, error)
	Upsert(ctx context.Context, tenantID, userID string, meta Metadata) error
}

// SessionProvider exposes the authentication provider for the current client.
// GetSession returns ErrNoSession when the user is not signed in.
// ForceRefresh is called with the resolved Identity in ctx and reports whether a
// fresh token carrying the tenant claim was issued.
type SessionProvider interface {
	GetSession(ctx context.Context) (*Session, error)
	FetchAttributes(ctx context.Context) (map[string]string, error)
	ForceRefresh(ctx context.Context) bool
}

// Storage is the set of locations a resolution reads from and writes back to.
// Any of them may be nil; a nil location is skipped.
type Storage struct {
	Durable DurableStorage
	Cookie  CookieStore
	Remote  RemoteService
}
