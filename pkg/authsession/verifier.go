package authsession

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/tenantsync/pkg/cookie"
	"github.com/dmitrymomot/tenantsync/pkg/logger"
	"github.com/dmitrymomot/tenantsync/pkg/tenant"
)

// Claims is the identity token payload. Attrs holds the custom provider
// attributes, one of which carries the tenant id.
type Claims struct {
	jwt.RegisteredClaims
	Email string            `json:"email,omitempty"`
	Attrs map[string]string `json:"attrs,omitempty"`
}

// Verifier validates HS256 identity tokens and turns them into tenant sessions.
type Verifier struct {
	secret       []byte
	issuer       string
	ttl          time.Duration
	leeway       time.Duration
	cookieName   string
	cookieSecure bool
	claimKey     string
	extract      TokenExtractor
	attrs        AttributeSource
	assign       ClaimAssigner
	cookies      *cookie.Manager
	logger       *slog.Logger
	now          func() time.Time
}

// New creates a Verifier signing and checking tokens with secret.
func New(secret string, opts ...Option) (*Verifier, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	v := &Verifier{
		secret:     []byte(secret),
		ttl:        time.Hour,
		leeway:     30 * time.Second,
		cookieName: "access_token",
		claimKey:   tenant.DefaultClaimKey,
		logger:     logger.Discard(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.extract == nil {
		v.extract = FirstOf(BearerToken, CookieToken(v.cookieName))
	}
	v.cookies = cookie.New(cookie.WithHTTPOnly(true), cookie.WithSecure(v.cookieSecure))
	return v, nil
}

// Issue mints a token for userID. attrs become the session claims.
func (v *Verifier) Issue(userID, email string, attrs map[string]string) (string, error) {
	if userID == "" {
		return "", ErrMissingUserID
	}
	now := v.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.ttl)),
		},
		Email: email,
		Attrs: attrs,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Verify checks the signature, algorithm, issuer and validity window of token.
func (v *Verifier) Verify(token string) (*tenant.Session, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims Claims
	if _, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...); err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, ErrMissingUserID
	}

	return &tenant.Session{
		UserID: claims.Subject,
		Email:  claims.Email,
		Token:  token,
		Claims: maps.Clone(claims.Attrs),
	}, nil
}

// Provider returns the session provider for one request. It matches
// tenant.SessionSource.
func (v *Verifier) Provider(w http.ResponseWriter, r *http.Request) tenant.SessionProvider {
	return &provider{v: v, w: w, r: r}
}

// provider is request-scoped and not shared between goroutines.
type provider struct {
	v    *Verifier
	w    http.ResponseWriter
	r    *http.Request
	sess *tenant.Session
}

func (p *provider) GetSession(ctx context.Context) (*tenant.Session, error) {
	if p.sess != nil {
		return p.sess, nil
	}
	token, err := p.v.extract(p.r)
	if err != nil {
		return nil, errors.Join(tenant.ErrNoSession, err)
	}
	sess, err := p.v.Verify(token)
	if err != nil {
		p.v.logger.DebugContext(ctx, "rejected identity token", logger.Error(err))
		return nil, errors.Join(tenant.ErrNoSession, err)
	}
	p.sess = sess
	return sess, nil
}

func (p *provider) FetchAttributes(ctx context.Context) (map[string]string, error) {
	if p.v.attrs == nil {
		return nil, nil
	}
	if p.sess == nil {
		return nil, tenant.ErrNoSession
	}
	return p.v.attrs.Attributes(ctx, p.sess.UserID)
}

// ForceRefresh issues a new token carrying the resolved tenant id and hands it
// back through the token cookie and the X-Access-Token header. Ids won from the
// cookie or durable storage are refused. With a ClaimAssigner the id is recorded
// with the identity provider first, and a failed assignment issues nothing.
func (p *provider) ForceRefresh(ctx context.Context) bool {
	ident, ok := tenant.FromContext(ctx)
	if p.sess == nil || !ok || ident.TenantID == uuid.Nil {
		return false
	}
	switch ident.Source {
	case tenant.SourceCookie, tenant.SourceDurable, tenant.SourceSession:
		p.v.logger.WarnContext(ctx, "refusing to promote tenant id into token claim",
			logger.UserID(p.sess.UserID), logger.Source(ident.Source))
		return false
	}
	id := ident.TenantID

	if p.v.assign != nil {
		if err := p.v.assign(ctx, id.String()); err != nil {
			p.v.logger.WarnContext(ctx, "tenant claim assignment failed", logger.UserID(p.sess.UserID), logger.Error(err))
			return false
		}
	}

	attrs := maps.Clone(p.sess.Claims)
	if attrs == nil {
		attrs = make(map[string]string, 1)
	}
	attrs[p.v.claimKey] = id.String()
	delete(attrs, tenant.NewAccountClaim)

	token, err := p.v.Issue(p.sess.UserID, p.sess.Email, attrs)
	if err != nil {
		p.v.logger.WarnContext(ctx, "token refresh failed", logger.UserID(p.sess.UserID), logger.Error(err))
		return false
	}
	if err := p.v.cookies.Set(p.w, p.v.cookieName, token, cookie.WithMaxAge(int(p.v.ttl/time.Second))); err != nil {
		p.v.logger.WarnContext(ctx, "token cookie write failed", logger.UserID(p.sess.UserID), logger.Error(err))
		return false
	}
	p.w.Header().Set("X-Access-Token", token)

	p.sess = &tenant.Session{UserID: p.sess.UserID, Email: p.sess.Email, Token: token, Claims: attrs}
	return true
}
