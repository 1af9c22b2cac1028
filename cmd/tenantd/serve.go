package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/tenantsync/internal/server"
	"github.com/dmitrymomot/tenantsync/pkg/authsession"
	"github.com/dmitrymomot/tenantsync/pkg/clientip"
	"github.com/dmitrymomot/tenantsync/pkg/cookie"
	"github.com/dmitrymomot/tenantsync/pkg/durable"
	"github.com/dmitrymomot/tenantsync/pkg/httpserver"
	"github.com/dmitrymomot/tenantsync/pkg/logger"
	"github.com/dmitrymomot/tenantsync/pkg/requestid"
	"github.com/dmitrymomot/tenantsync/pkg/tenant"
	"github.com/dmitrymomot/tenantsync/pkg/tenantclient"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tenant resolution HTTP API",
	Long: `Run the HTTP API used by the dashboard shell.

Durable storage is selected with DURABLE_BACKEND (memory, redis or postgres).
The tenant record service is used only when TENANT_API_URL is set.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	logger.SetAsDefault(log)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, check, err := durable.Open(ctx, cfg.Durable, cfg.Redis, cfg.Postgres, log)
	if err != nil {
		return err
	}
	checks := map[string]httpserver.Check{}
	if check != nil {
		checks["durable"] = check
	}
	log.InfoContext(ctx, "durable storage ready", slog.String("backend", cfg.Durable.Backend))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	resolverOpts, err := cfg.Resolver.options(log.With(logger.Component("resolver")), tenant.NewMetrics(reg))
	if err != nil {
		return errors.Join(store.Close(), err)
	}

	authOpts := []authsession.Option{
		authsession.WithClaimKey(cfg.Resolver.ClaimKey),
		authsession.WithLogger(log.With(logger.Component("authsession"))),
	}

	var remote tenant.RemoteService
	if cfg.TenantClient.BaseURL != "" {
		client, err := tenantclient.NewFromConfig(cfg.TenantClient,
			tenantclient.WithHTTPClient(&http.Client{Transport: requestid.Transport(nil)}),
			tenantclient.WithLogger(log.With(logger.Component("tenantclient"))),
		)
		if err != nil {
			return errors.Join(store.Close(), err)
		}
		remote = client
		// The identity provider holds the claim; a refresh only re-signs what it accepted.
		authOpts = append(authOpts, authsession.WithClaimAssigner(client.Assign))
	} else {
		log.InfoContext(ctx, "tenant record service not configured, resolving from local sources only")
	}

	verifier, err := authsession.NewFromConfig(cfg.Auth, authOpts...)
	if err != nil {
		return errors.Join(store.Close(), err)
	}

	sources := tenant.Sources{
		Sessions: verifier.Provider,
		Durable:  durable.ForUser(store),
		Cookies:  cookie.NewFromConfig(cfg.Cookie).Store,
		Remote:   remote,
	}

	router := server.NewRouter(server.Options{
		Logger:   log,
		Resolver: tenant.NewResolver(resolverOpts...),
		Sources:  sources,
		Tenant: []tenant.Option{
			tenant.WithSessionRefresh(cfg.Resolver.SessionRefresh),
		},
		ClientIP:   clientip.New(cfg.ClientIPHeaders...),
		Checks:     checks,
		Gatherer:   reg,
		RateLimit:  cfg.Resolver.RateLimit,
		RateWindow: cfg.Resolver.RateWindow,
	})

	srv := httpserver.NewFromConfig(cfg.HTTP,
		httpserver.WithLogger(log.With(logger.Component("httpserver"))),
		httpserver.WithStopHook(func(context.Context) error { return store.Close() }),
	)
	return srv.Run(ctx, router)
}
