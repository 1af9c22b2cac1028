package main

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tenantsync/pkg/authsession"
	"github.com/dmitrymomot/tenantsync/pkg/clientip"
	"github.com/dmitrymomot/tenantsync/pkg/cookie"
	"github.com/dmitrymomot/tenantsync/pkg/durable"
	"github.com/dmitrymomot/tenantsync/pkg/httpserver"
	"github.com/dmitrymomot/tenantsync/pkg/logger"
	"github.com/dmitrymomot/tenantsync/pkg/pg"
	"github.com/dmitrymomot/tenantsync/pkg/redis"
	"github.com/dmitrymomot/tenantsync/pkg/requestid"
	"github.com/dmitrymomot/tenantsync/pkg/tenant"
	"github.com/dmitrymomot/tenantsync/pkg/tenantclient"
)

// Config is the full tenantd configuration, read from the environment.
type Config struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL"`

	// ClientIPHeaders lists the proxy headers trusted for the client address.
	ClientIPHeaders []string `env:"CLIENT_IP_HEADERS" envSeparator:","`

	Resolver ResolverConfig

	HTTP         httpserver.Config
	Durable      durable.Config
	Redis        redis.Config
	Postgres     pg.Config
	Cookie       cookie.Config
	Auth         authsession.Config
	TenantClient tenantclient.Config
}

// ResolverConfig holds tenant resolution settings.
type ResolverConfig struct {
	ClaimKey       string        `env:"TENANT_CLAIM_KEY" envDefault:"custom:tenantId"`
	StorageKey     string        `env:"TENANT_STORAGE_KEY" envDefault:"tenantId"`
	CookieName     string        `env:"TENANT_COOKIE_NAME" envDefault:"tenantId"`
	CookieMaxAge   time.Duration `env:"TENANT_COOKIE_MAX_AGE" envDefault:"720h"`
	Namespace      string        `env:"TENANT_NAMESPACE"`
	SessionRefresh bool          `env:"TENANT_SESSION_REFRESH" envDefault:"true"`
	RateLimit      int           `env:"TENANT_RATE_LIMIT" envDefault:"60"`
	RateWindow     time.Duration `env:"TENANT_RATE_WINDOW" envDefault:"1m"`
}

func (c ResolverConfig) options(log *slog.Logger, metrics *tenant.Metrics) ([]tenant.ResolverOption, error) {
	opts := []tenant.ResolverOption{
		tenant.WithLogger(log),
		tenant.WithMetrics(metrics),
		tenant.WithClaimKey(c.ClaimKey),
		tenant.WithStorageKey(c.StorageKey),
		tenant.WithCookieName(c.CookieName),
		tenant.WithCookieMaxAge(c.CookieMaxAge),
	}
	if c.Namespace != "" {
		ns, err := uuid.Parse(c.Namespace)
		if err != nil {
			return nil, err
		}
		opts = append(opts, tenant.WithNamespace(ns))
	}
	return opts, nil
}

func newLogger(cfg Config) (*slog.Logger, error) {
	opts := []logger.Option{
		logger.WithEnvironment(cfg.Env, "tenantd"),
		logger.WithContextExtractors(
			requestid.LoggerExtractor(),
			clientip.LoggerExtractor(),
			tenant.LoggerExtractor(),
		),
	}
	if cfg.LogLevel != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			return nil, err
		}
		opts = append(opts, logger.WithLevel(lvl))
	}
	return logger.New(opts...), nil
}
