package authsession

import (
	"context"
	"log/slog"
	"time"
)

// AttributeSource looks up the user's current provider attributes, used when
// the token predates an attribute update.
type AttributeSource interface {
	Attributes(ctx context.Context, userID string) (map[string]string, error)
}

// AttributesFunc adapts a function to AttributeSource.
type AttributesFunc func(ctx context.Context, userID string) (map[string]string, error)

// Attributes calls f.
func (f AttributesFunc) Attributes(ctx context.Context, userID string) (map[string]string, error) {
	return f(ctx, userID)
}

// ClaimAssigner records the tenant claim with the identity provider before a
// refreshed token is issued.
type ClaimAssigner func(ctx context.Context, tenantID string) error

// Option configures a Verifier.
type Option func(*Verifier)

// WithIssuer sets the iss claim of issued tokens and requires it on verified ones.
func WithIssuer(iss string) Option {
	return func(v *Verifier) {
		v.issuer = iss
	}
}

// WithTTL sets the lifetime of issued tokens.
func WithTTL(d time.Duration) Option {
	return func(v *Verifier) {
		if d > 0 {
			v.ttl = d
		}
	}
}

// WithLeeway tolerates clock skew when checking exp and nbf.
func WithLeeway(d time.Duration) Option {
	return func(v *Verifier) {
		if d >= 0 {
			v.leeway = d
		}
	}
}

// WithCookie sets the cookie that carries the token for browser clients.
func WithCookie(name string, secure bool) Option {
	return func(v *Verifier) {
		if name != "" {
			v.cookieName = name
		}
		v.cookieSecure = secure
	}
}

// WithExtractor replaces the default bearer-then-cookie token lookup.
func WithExtractor(ex TokenExtractor) Option {
	return func(v *Verifier) {
		if ex != nil {
			v.extract = ex
		}
	}
}

// WithAttributeSource sets where missing token attributes are looked up.
func WithAttributeSource(src AttributeSource) Option {
	return func(v *Verifier) {
		v.attrs = src
	}
}

// WithClaimKey sets the claim refreshed tokens carry the tenant id under.
func WithClaimKey(key string) Option {
	return func(v *Verifier) {
		if key != "" {
			v.claimKey = key
		}
	}
}

// WithClaimAssigner sets the step that records a tenant claim before a refresh.
func WithClaimAssigner(fn ClaimAssigner) Option {
	return func(v *Verifier) {
		v.assign = fn
	}
}

// WithLogger sets the verifier logger.
func WithLogger(l *slog.Logger) Option {
	return func(v *Verifier) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		if now != nil {
			v.now = now
		}
	}
}
