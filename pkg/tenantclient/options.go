package tenantclient

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// TokenSource returns the bearer token for an outgoing call.
type TokenSource func(ctx context.Context) (string, error)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithTimeout bounds every call. Default is 5 seconds.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.timeout = d
		}
	}
}

// WithBreaker sets the circuit breaker. Pass nil to disable it.
func WithBreaker(b *Breaker) Option {
	return func(cl *Client) {
		cl.breaker = b
	}
}

// WithTokenSource overrides how the bearer token is obtained.
// The default forwards the token of the session stored in the context.
func WithTokenSource(ts TokenSource) Option {
	return func(cl *Client) {
		if ts != nil {
			cl.token = ts
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.logger = l
		}
	}
}

// WithUserAgent sets the User-Agent header of outgoing calls.
func WithUserAgent(ua string) Option {
	return func(cl *Client) {
		if ua != "" {
			cl.userAgent = ua
		}
	}
}
