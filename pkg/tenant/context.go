package tenant

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type (
	identityKey struct{}
	sessionKey  struct{}
)

// WithIdentity adds a resolved identity to the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext retrieves the resolved identity from the context.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// IDFromContext retrieves just the tenant id from the context.
// Returns uuid.Nil and false if no tenant was resolved.
func IDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := FromContext(ctx)
	if !ok || id.TenantID == uuid.Nil {
		return uuid.Nil, false
	}
	return id.TenantID, true
}

// MustFromContext retrieves the identity from the context.
// Panics if no tenant is found. Use this only behind RequireTenant.
func MustFromContext(ctx context.Context) Identity {
	id, ok := FromContext(ctx)
	if !ok {
		panic("tenant: no tenant in context")
	}
	return id
}

// WithSession adds the authenticated session to the context.
// Remote adapters use it to forward the user's token.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFromContext retrieves the session stored by WithSession.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(*Session)
	return sess, ok && sess != nil
}

// LoggerExtractor returns a logger context extractor adding the tenant id.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := IDFromContext(ctx); ok {
			return slog.String("tenant_id", id.String()), true
		}
		return slog.Attr{}, false
	}
}
