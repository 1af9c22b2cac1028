package tenant

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrymomot/tenantsync/pkg/logger"
)

// SessionSource returns the authentication provider for a request. The writer
// lets a provider hand a refreshed token back to the client.
type SessionSource func(w http.ResponseWriter, r *http.Request) SessionProvider

// DurableSource returns the durable storage scoped to a request's user.
type DurableSource func(r *http.Request, sess *Session) DurableStorage

// CookieSource returns the cookie store bound to a request and its response.
type CookieSource func(w http.ResponseWriter, r *http.Request) CookieStore

// Sources builds the per-request collaborators of a resolution.
// Durable, Cookies and Remote are optional.
type Sources struct {
	Sessions SessionSource
	Durable  DurableSource
	Cookies  CookieSource
	Remote   RemoteService
}

// Middleware resolves the tenant for every request and adds the identity to the
// request context. Requests without a session or without a resolvable tenant are
// answered by the error handler and never reach next.
func Middleware(resolver *Resolver, src Sources, opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{
		errorHandler: defaultErrorHandler,
		newAccount:   defaultNewAccountDetector,
		metadata:     defaultMetadata,
		refresh:      true,
		claimSources: sourceSet(DefaultClaimSources),
		logger:       logger.Discard(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			ctx := r.Context()
			var provider SessionProvider
			if src.Sessions != nil {
				provider = src.Sessions(w, r)
			}

			sess, err := loadSession(r, provider, resolver.claimKey, cfg)
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}
			ctx = WithSession(ctx, sess)

			st := Storage{Remote: src.Remote}
			if src.Durable != nil {
				st.Durable = src.Durable(r, sess)
			}
			if src.Cookies != nil {
				st.Cookie = src.Cookies(w, r)
			}

			id, err := resolver.Resolve(ctx, Request{
				Session:    sess,
				NewAccount: cfg.newAccount(r, sess),
				Metadata:   cfg.metadata(r, sess),
			}, st)
			if err != nil {
				if !errors.Is(err, ErrNoValidIdentifier) {
					cfg.logger.ErrorContext(ctx, "tenant resolution failed", logger.UserID(sess.UserID), logger.Error(err))
				}
				cfg.errorHandler(w, r, err)
				return
			}

			ctx = WithIdentity(ctx, id)
			if cfg.refresh && cfg.claimSources[id.Source] && provider != nil {
				if !provider.ForceRefresh(ctx) {
					cfg.logger.WarnContext(ctx, "session refresh after tenant write-back failed",
						logger.UserID(sess.UserID), logger.TenantID(id.TenantID.String()))
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// loadSession fetches the session and, when its token lacks the tenant claim,
// merges freshly fetched provider attributes into the claims.
func loadSession(r *http.Request, provider SessionProvider, claimKey string, cfg *config) (*Session, error) {
	if provider == nil {
		return nil, ErrNoSession
	}
	ctx := r.Context()

	sess, err := provider.GetSession(ctx)
	if err != nil || sess == nil || sess.UserID == "" {
		if err != nil && !errors.Is(err, ErrNoSession) {
			cfg.logger.WarnContext(ctx, "session lookup failed", logger.Error(err))
		}
		return nil, ErrNoSession
	}

	if sess.Claim(claimKey) != "" {
		return sess, nil
	}

	attrs, err := provider.FetchAttributes(ctx)
	if err != nil {
		cfg.logger.WarnContext(ctx, "fetching session attributes failed", logger.UserID(sess.UserID), logger.Error(err))
		return sess, nil
	}

	merged := make(map[string]string, len(sess.Claims)+len(attrs))
	for k, v := range sess.Claims {
		merged[k] = v
	}
	for k, v := range attrs {
		merged[k] = v
	}
	cp := *sess
	cp.Claims = merged
	return &cp, nil
}

// RequireTenant creates middleware that ensures a tenant is present in the context.
func RequireTenant(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = defaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := IDFromContext(r.Context()); !ok {
				errorHandler(w, r, ErrNoTenantInContext)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Handler answers the dashboard shell's mount call with the identity resolved by
// Middleware.
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := FromContext(r.Context())
		if !ok {
			defaultErrorHandler(w, r, ErrNoTenantInContext)
			return
		}
		writeJSON(w, http.StatusOK, identityBody{
			TenantID: id.TenantID.String(),
			Source:   id.Source,
			UserID:   id.UserID,
		})
	})
}

type identityBody struct {
	TenantID string `json:"tenantId"`
	Source   Source `json:"source"`
	UserID   string `json:"userId"`
}

type errorBody struct {
	Error string `json:"error"`
	Retry bool   `json:"retry"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
