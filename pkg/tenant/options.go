package tenant

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the logger used by the resolver.
func WithLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithDeriver replaces the name-based deriver used for new accounts.
func WithDeriver(d Deriver) ResolverOption {
	return func(r *Resolver) {
		if d != nil {
			r.derive = d
		}
	}
}

// WithNamespace derives tenant ids in a namespace other than Namespace.
func WithNamespace(ns uuid.UUID) ResolverOption {
	return func(r *Resolver) {
		r.derive = NameBasedDeriver(ns)
	}
}

// WithRandom replaces the random source used when derivation fails.
func WithRandom(fn RandomSource) ResolverOption {
	return func(r *Resolver) {
		if fn != nil {
			r.random = fn
		}
	}
}

// WithClaimKey sets the session claim that carries the tenant id.
func WithClaimKey(key string) ResolverOption {
	return func(r *Resolver) {
		if key != "" {
			r.claimKey = key
		}
	}
}

// WithStorageKey sets the durable storage key holding the tenant id.
func WithStorageKey(key string) ResolverOption {
	return func(r *Resolver) {
		if key != "" {
			r.storageKey = key
		}
	}
}

// WithCookieName sets the tenant cookie name.
func WithCookieName(name string) ResolverOption {
	return func(r *Resolver) {
		if name != "" {
			r.cookieName = name
		}
	}
}

// WithCookieMaxAge sets the tenant cookie lifetime.
func WithCookieMaxAge(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.cookieMaxAge = d
		}
	}
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *Metrics) ResolverOption {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// ErrorHandler handles errors that occur during tenant resolution.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// NewAccountDetector reports whether the request belongs to a genuine sign-up flow.
type NewAccountDetector func(r *http.Request, sess *Session) bool

// config holds middleware configuration.
type config struct {
	errorHandler ErrorHandler
	skipPaths    []string
	newAccount   NewAccountDetector
	metadata     func(r *http.Request, sess *Session) Metadata
	refresh      bool
	claimSources map[Source]bool
	logger       *slog.Logger
}

// Option configures the middleware.
type Option func(*config)

// WithErrorHandler sets a custom error handler.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(c *config) {
		if handler != nil {
			c.errorHandler = handler
		}
	}
}

// WithSkipPaths sets path prefixes that bypass tenant resolution.
func WithSkipPaths(paths []string) Option {
	return func(c *config) {
		c.skipPaths = paths
	}
}

// WithNewAccountDetector sets how the middleware recognises a sign-up flow.
func WithNewAccountDetector(fn NewAccountDetector) Option {
	return func(c *config) {
		if fn != nil {
			c.newAccount = fn
		}
	}
}

// WithMetadata sets how upsert metadata is built for a request.
func WithMetadata(fn func(r *http.Request, sess *Session) Metadata) Option {
	return func(c *config) {
		if fn != nil {
			c.metadata = fn
		}
	}
}

// WithSessionRefresh controls whether the session is force-refreshed after a tenant id
// from one of the claim sources was written back, so the next token carries the claim.
func WithSessionRefresh(enabled bool) Option {
	return func(c *config) {
		c.refresh = enabled
	}
}

// DefaultClaimSources are the winning sources promoted into the session claim by a
// refresh. Cookie and durable values are client-supplied or derived from one, so a
// refresh never turns them into a signed claim.
var DefaultClaimSources = []Source{SourceRemote, SourceDerived, SourceRandom}

// WithClaimSources replaces DefaultClaimSources. SourceSession is ignored.
func WithClaimSources(sources ...Source) Option {
	return func(c *config) {
		c.claimSources = sourceSet(sources)
	}
}

func sourceSet(sources []Source) map[Source]bool {
	set := make(map[Source]bool, len(sources))
	for _, s := range sources {
		if s != SourceSession {
			set[s] = true
		}
	}
	return set
}

// WithMiddlewareLogger sets the logger used by the middleware.
func WithMiddlewareLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewAccountClaim is the session claim the default detector checks.
const NewAccountClaim = "custom:newAccount"

func defaultNewAccountDetector(_ *http.Request, sess *Session) bool {
	return sess.Claim(NewAccountClaim) == "true"
}

func defaultMetadata(_ *http.Request, sess *Session) Metadata {
	return Metadata{
		Email:        sess.Email,
		BusinessName: sess.Claim("custom:businessName"),
	}
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNoSession):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthenticated", Retry: false})
	case errors.Is(err, ErrNoValidIdentifier):
		writeJSON(w, http.StatusConflict, errorBody{Error: "tenant_unresolved", Retry: true})
	case errors.Is(err, ErrNoTenantInContext):
		writeJSON(w, http.StatusConflict, errorBody{Error: "tenant_required", Retry: true})
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal_error", Retry: true})
	}
}
