package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/tenantsync/pkg/logger"
)

// Check tests one dependency.
type Check func(ctx context.Context) error

type healthBody struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HealthHandler runs every check concurrently with a shared timeout. It answers
// 200 {"status":"ok"} when all pass and 503 with the failing check names
// otherwise. Without checks it is a plain liveness check.
func HealthHandler(log *slog.Logger, timeout time.Duration, checks map[string]Check) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name, c := range checks {
		if c != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		var (
			mu     sync.Mutex
			result = make(map[string]string, len(names))
			failed bool
			g      errgroup.Group
		)
		for _, name := range names {
			g.Go(func() error {
				status := "ok"
				if err := checks[name](ctx); err != nil {
					status = "failed"
					log.WarnContext(ctx, "health check failed", slog.String("check", name), logger.Error(err))
				}
				mu.Lock()
				result[name] = status
				failed = failed || status != "ok"
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()

		body := healthBody{Status: "ok", Checks: result}
		code := http.StatusOK
		if failed {
			body.Status = "unavailable"
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(body)
	}
}
