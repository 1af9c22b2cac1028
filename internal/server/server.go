package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/tenantsync/pkg/clientip"
	"github.com/dmitrymomot/tenantsync/pkg/httpserver"
	"github.com/dmitrymomot/tenantsync/pkg/logger"
	"github.com/dmitrymomot/tenantsync/pkg/requestid"
	"github.com/dmitrymomot/tenantsync/pkg/tenant"
)

// Options wires the router's collaborators. Resolver and Sources are required.
type Options struct {
	Logger   *slog.Logger
	Resolver *tenant.Resolver
	Sources  tenant.Sources
	Tenant   []tenant.Option

	// Checks feed /healthz; nil means a plain liveness check.
	Checks        map[string]httpserver.Check
	HealthTimeout time.Duration

	// Gatherer backs /metrics; nil uses prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	// ClientIP resolves the address rate limits are keyed by; nil trusts no proxy headers.
	ClientIP *clientip.Resolver

	// RateLimit caps resolve calls per client IP and RateWindow; zero disables it.
	RateLimit  int
	RateWindow time.Duration
}

// NewRouter builds the tenantd HTTP API.
//
//	GET /healthz              readiness of the configured storage
//	GET /metrics              Prometheus metrics
//	GET /api/tenant           resolve the caller's tenant (rate limited)
//	GET /api/dashboard/*      tenant-scoped routes, reached only after resolution
func NewRouter(opts Options) chi.Router {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	ips := opts.ClientIP
	if ips == nil {
		ips = clientip.New()
	}
	healthTimeout := opts.HealthTimeout
	if healthTimeout <= 0 {
		healthTimeout = 2 * time.Second
	}

	resolve := tenant.Middleware(opts.Resolver, opts.Sources,
		append([]tenant.Option{tenant.WithMiddlewareLogger(log)}, opts.Tenant...)...)

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(ips.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(accessLog(log))

	r.Get("/healthz", httpserver.HealthHandler(log, healthTimeout, opts.Checks))
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(api chi.Router) {
		api.With(rateLimit(opts.RateLimit, opts.RateWindow, ips, log), resolve).
			Get("/tenant", tenant.Handler().ServeHTTP)

		api.Route("/dashboard", func(d chi.Router) {
			d.Use(resolve, tenant.RequireTenant(nil))
			d.Get("/context", dashboardContext)
		})
	})

	return r
}

func rateLimit(requests int, window time.Duration, ips *clientip.Resolver, log *slog.Logger) func(http.Handler) http.Handler {
	if requests <= 0 || window <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(requests, window,
		httprate.WithKeyFuncs(ips.KeyFunc),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			log.WarnContext(r.Context(), "rate limit exceeded",
				slog.String("path", r.URL.Path))
			writeJSON(w, http.StatusTooManyRequests, map[string]any{"error": "rate_limited", "retry": true})
		}),
	)
}

// dashboardContext echoes the tenant scope a dashboard request runs under.
func dashboardContext(w http.ResponseWriter, r *http.Request) {
	id := tenant.MustFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{
		"tenantId":  id.TenantID.String(),
		"userId":    id.UserID,
		"source":    id.Source.String(),
		"requestId": requestid.FromContext(r.Context()),
	})
}

func accessLog(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.DebugContext(r.Context(), "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				logger.Duration(time.Since(start)))
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
