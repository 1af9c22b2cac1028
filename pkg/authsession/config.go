package authsession

import "time"

// Config holds the session verifier configuration.
type Config struct {
	Secret       string        `env:"AUTH_JWT_SECRET"`
	Issuer       string        `env:"AUTH_JWT_ISSUER" envDefault:"tenantsync"`
	TokenTTL     time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"1h"`
	Leeway       time.Duration `env:"AUTH_CLOCK_LEEWAY" envDefault:"30s"`
	CookieName   string        `env:"AUTH_COOKIE_NAME" envDefault:"access_token"`
	CookieSecure bool          `env:"AUTH_COOKIE_SECURE" envDefault:"false"`
}

// NewFromConfig creates a Verifier from cfg. Options are applied after the config.
func NewFromConfig(cfg Config, opts ...Option) (*Verifier, error) {
	base := []Option{
		WithIssuer(cfg.Issuer),
		WithTTL(cfg.TokenTTL),
		WithLeeway(cfg.Leeway),
		WithCookie(cfg.CookieName, cfg.CookieSecure),
	}
	return New(cfg.Secret, append(base, opts...)...)
}
