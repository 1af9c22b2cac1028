package tenant

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/tenantsync/pkg/logger"
)

// Resolver determines the current tenant id for a user session and writes it back to
// every storage location so they agree.
//
// Precedence, highest first: session claim, remote record, durable storage, cookie.
// When none holds a valid id the tenant is derived from the user id, but only for
// new accounts; otherwise Resolve fails with ErrNoValidIdentifier and writes nothing.
type Resolver struct {
	logger       *slog.Logger
	derive       Deriver
	random       RandomSource
	claimKey     string
	storageKey   string
	cookieName   string
	cookieMaxAge time.Duration
	metrics      *Metrics
	now          func() time.Time
}

// NewResolver creates a Resolver with the given options.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		logger:       logger.Discard(),
		derive:       NameBasedDeriver(Namespace),
		random:       defaultRandom,
		claimKey:     DefaultClaimKey,
		storageKey:   DefaultStorageKey,
		cookieName:   DefaultCookieName,
		cookieMaxAge: DefaultCookieMaxAge,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// local holds the raw values read from the client-side locations.
type local struct {
	durable string
	cookie  string
}

// Resolve returns the tenant identity for req.Session and persists it to st.
//
// Remote failures are logged and resolution continues with local sources.
// Write-back failures never fail the resolution. The only reportable errors are
// ErrNoSession, ErrNoValidIdentifier, ErrDerivationFailure (when the random
// fallback fails as well) and the context error when ctx is done.
func (r *Resolver) Resolve(ctx context.Context, req Request, st Storage) (Identity, error) {
	start := r.now()
	sess := req.Session
	if sess == nil || sess.UserID == "" {
		r.metrics.resolution("", OutcomeNoSession, r.now().Sub(start))
		return Identity{}, ErrNoSession
	}
	log := r.logger.With(logger.UserID(sess.UserID))

	vals, err := r.readLocal(ctx, st, log)
	if err != nil {
		r.metrics.resolution("", OutcomeCanceled, r.now().Sub(start))
		return Identity{}, err
	}

	id, src, found := r.pick(ctx, log, SourceSession, sess.Claim(r.claimKey))

	if !found && st.Remote != nil {
		id, src, found, err = r.fetchRemote(ctx, log, st.Remote, sess.UserID)
		if err != nil {
			r.metrics.resolution("", OutcomeCanceled, r.now().Sub(start))
			return Identity{}, err
		}
	}
	if !found {
		id, src, found = r.pick(ctx, log, SourceDurable, vals.durable)
	}
	if !found {
		id, src, found = r.pick(ctx, log, SourceCookie, vals.cookie)
	}

	if !found {
		if !req.NewAccount {
			log.WarnContext(ctx, "no valid tenant identifier in any location")
			r.metrics.resolution("", OutcomeNoValidIdentifier, r.now().Sub(start))
			return Identity{}, ErrNoValidIdentifier
		}
		id, src, err = r.mint(ctx, log, sess.UserID)
		if err != nil {
			r.metrics.resolution("", OutcomeDerivationFailed, r.now().Sub(start))
			return Identity{}, err
		}
	}

	// A torn-down session commits nothing.
	if err := ctx.Err(); err != nil {
		r.metrics.resolution(src, OutcomeCanceled, r.now().Sub(start))
		return Identity{}, err
	}

	log = log.With(logger.TenantID(id.String()), logger.Source(src))
	r.reportRepairs(ctx, log, id, vals)
	r.persist(ctx, log, id, src, req, st)

	if err := ctx.Err(); err != nil {
		r.metrics.resolution(src, OutcomeCanceled, r.now().Sub(start))
		return Identity{}, err
	}

	r.metrics.resolution(src, OutcomeResolved, r.now().Sub(start))
	log.DebugContext(ctx, "tenant resolved")

	return Identity{
		TenantID:   id,
		Source:     src,
		UserID:     sess.UserID,
		ResolvedAt: r.now(),
	}, nil
}

// readLocal reads durable storage and the cookie concurrently.
// Read failures are logged and treated as absent values.
func (r *Resolver) readLocal(ctx context.Context, st Storage, log *slog.Logger) (local, error) {
	var vals local
	var g errgroup.Group

	if st.Durable != nil {
		g.Go(func() error {
			v, err := st.Durable.Get(ctx, r.storageKey)
			if err != nil {
				if !errors.Is(err, ErrValueNotFound) {
					log.WarnContext(ctx, "durable storage read failed", logger.Error(err))
				}
				return nil
			}
			vals.durable = v
			return nil
		})
	}
	if st.Cookie != nil {
		g.Go(func() error {
			v, err := st.Cookie.Get(r.cookieName)
			if err != nil {
				if !errors.Is(err, ErrValueNotFound) {
					log.WarnContext(ctx, "tenant cookie read failed", logger.Error(err))
				}
				return nil
			}
			vals.cookie = v
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return local{}, err
	}
	return vals, nil
}

// pick validates a candidate. Invalid values are logged and treated as absent.
func (r *Resolver) pick(ctx context.Context, log *slog.Logger, src Source, raw string) (uuid.UUID, Source, bool) {
	if raw == "" {
		return uuid.Nil, "", false
	}
	id, err := ParseID(raw)
	if err != nil {
		log.DebugContext(ctx, "ignoring malformed tenant id", logger.Source(src), logger.Error(err))
		return uuid.Nil, "", false
	}
	return id, src, true
}

func (r *Resolver) fetchRemote(ctx context.Context, log *slog.Logger, remote RemoteService, userID string) (uuid.UUID, Source, bool, error) {
	raw, err := remote.FetchByUser(ctx, userID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return uuid.Nil, "", false, ctxErr
		}
		if errors.Is(err, ErrTenantNotFound) {
			log.DebugContext(ctx, "no remote tenant record")
			return uuid.Nil, "", false, nil
		}
		r.metrics.remoteError("fetch")
		log.WarnContext(ctx, "tenant record service unavailable, using local sources",
			logger.Error(errors.Join(ErrRemoteUnavailable, err)))
		return uuid.Nil, "", false, nil
	}
	id, src, found := r.pick(ctx, log, SourceRemote, raw)
	return id, src, found, nil
}

// mint derives a tenant id for a new account, falling back to a random id when
// derivation is not possible.
func (r *Resolver) mint(ctx context.Context, log *slog.Logger, userID string) (uuid.UUID, Source, error) {
	id, err := r.derive(userID)
	if err == nil && id != uuid.Nil {
		log.InfoContext(ctx, "derived tenant id for new account")
		return id, SourceDerived, nil
	}
	if err == nil {
		err = errors.New("deriver returned nil uuid")
	}

	log.WarnContext(ctx, "tenant id derivation failed, minting random tenant id: the same user may get a different tenant on another device",
		logger.Error(err))

	rid, rerr := r.random()
	if rerr != nil || rid == uuid.Nil {
		if rerr == nil {
			rerr = errors.New("random source returned nil uuid")
		}
		log.ErrorContext(ctx, "random tenant id generation failed", logger.Error(rerr))
		return uuid.Nil, "", errors.Join(ErrDerivationFailure, err, rerr)
	}
	return rid, SourceRandom, nil
}

func (r *Resolver) reportRepairs(ctx context.Context, log *slog.Logger, id uuid.UUID, vals local) {
	winner := id.String()
	for _, loc := range []struct {
		src Source
		raw string
	}{
		{SourceDurable, vals.durable},
		{SourceCookie, vals.cookie},
	} {
		if loc.raw == "" {
			continue
		}
		parsed, err := ParseID(loc.raw)
		if err == nil && parsed.String() == winner {
			continue
		}
		r.metrics.repair(string(loc.src))
		log.InfoContext(ctx, "tenant id divergence repaired",
			logger.Location(string(loc.src)),
			slog.Bool("malformed", err != nil))
	}
}

// persist writes the chosen id to every location concurrently. Each write is
// independent: one failing does not stop the others.
func (r *Resolver) persist(ctx context.Context, log *slog.Logger, id uuid.UUID, src Source, req Request, st Storage) {
	value := id.String()
	var g errgroup.Group

	if st.Durable != nil {
		g.Go(func() error {
			if err := st.Durable.Set(ctx, r.storageKey, value); err != nil {
				r.metrics.writeError(string(SourceDurable))
				log.WarnContext(ctx, "durable storage write failed", logger.Error(err))
			}
			return nil
		})
	}
	if st.Cookie != nil {
		g.Go(func() error {
			err := st.Cookie.Set(r.cookieName, value, CookieOptions{
				Path:     "/",
				MaxAge:   r.cookieMaxAge,
				SameSite: http.SameSiteLaxMode,
			})
			if err != nil {
				r.metrics.writeError(string(SourceCookie))
				log.WarnContext(ctx, "tenant cookie write failed", logger.Error(err))
			}
			return nil
		})
	}
	if st.Remote != nil && src != SourceRemote {
		meta := req.Metadata
		if meta.Email == "" {
			meta.Email = req.Session.Email
		}
		g.Go(func() error {
			if err := st.Remote.Upsert(ctx, value, req.Session.UserID, meta); err != nil {
				r.metrics.remoteError("upsert")
				r.metrics.writeError(string(SourceRemote))
				log.WarnContext(ctx, "remote tenant upsert failed, will retry on next resolution", logger.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
}
