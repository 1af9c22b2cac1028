package tenantclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrymomot/tenantsync/pkg/logger"
	"github.com/dmitrymomot/tenantsync/pkg/tenant"
)

// maxBody caps how much of a response is read.
const maxBody = 64 << 10

// Record is the tenant record returned by GET /tenant.
type Record struct {
	TenantID string `json:"tenantId"`
	Source   string `json:"source,omitempty"`
}

// EnsureRequest is the body of POST /tenant/ensure-record.
type EnsureRequest struct {
	TenantID     string `json:"tenantId"`
	UserID       string `json:"userId"`
	Email        string `json:"email,omitempty"`
	BusinessName string `json:"businessName,omitempty"`
	ForceCreate  bool   `json:"forceCreate,omitempty"`
}

// EnsureResult reports whether EnsureRecord created a new record.
type EnsureResult struct {
	TenantID string `json:"tenantId"`
	Created  bool   `json:"created"`
}

// Client talks to the tenant record service. It implements tenant.RemoteService.
//
// Calls are authenticated with the caller's own bearer token and never retried
// inside a call; the resolver retries an upsert on its next run.
type Client struct {
	base      *url.URL
	http      *http.Client
	timeout   time.Duration
	breaker   *Breaker
	token     TokenSource
	logger    *slog.Logger
	userAgent string
}

var _ tenant.RemoteService = (*Client)(nil)

// New creates a Client for the service rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, errors.Join(ErrInvalidBaseURL, fmt.Errorf("%q", baseURL), err)
	}

	c := &Client{
		base:      u,
		http:      &http.Client{Transport: http.DefaultTransport},
		timeout:   5 * time.Second,
		breaker:   NewBreaker(0, 0, 0),
		token:     sessionToken,
		logger:    logger.Discard(),
		userAgent: "tenantsync/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// sessionToken forwards the token of the session placed in ctx by tenant.Middleware.
func sessionToken(ctx context.Context) (string, error) {
	sess, ok := tenant.SessionFromContext(ctx)
	if !ok || sess.Token == "" {
		return "", ErrMissingToken
	}
	return sess.Token, nil
}

// Get returns the caller's tenant record.
// A missing record is tenant.ErrTenantNotFound.
func (c *Client) Get(ctx context.Context) (Record, error) {
	var rec Record
	status, err := c.do(ctx, http.MethodGet, "/tenant", nil, &rec, http.StatusNotFound)
	if err != nil {
		return Record{}, err
	}
	if status == http.StatusNotFound || rec.TenantID == "" {
		return Record{}, tenant.ErrTenantNotFound
	}
	return rec, nil
}

// FetchByUser returns the tenant id recorded for the caller. The service
// identifies the user by the bearer token; userID is checked against the
// session the token belongs to.
func (c *Client) FetchByUser(ctx context.Context, userID string) (string, error) {
	if sess, ok := tenant.SessionFromContext(ctx); ok && sess.UserID != userID {
		return "", errors.Join(tenant.ErrRemoteUnavailable, fmt.Errorf("session user %q does not match %q", sess.UserID, userID))
	}
	rec, err := c.Get(ctx)
	if err != nil {
		return "", err
	}
	return rec.TenantID, nil
}

// Assign sets the caller's tenant id on the identity provider side.
func (c *Client) Assign(ctx context.Context, tenantID string) error {
	_, err := c.do(ctx, http.MethodPost, "/tenant", map[string]string{"tenantId": tenantID}, nil)
	return err
}

// EnsureRecord creates the tenant record if it does not exist.
func (c *Client) EnsureRecord(ctx context.Context, req EnsureRequest) (EnsureResult, error) {
	var res EnsureResult
	if _, err := c.do(ctx, http.MethodPost, "/tenant/ensure-record", req, &res); err != nil {
		return EnsureResult{}, err
	}
	if res.TenantID == "" {
		res.TenantID = req.TenantID
	}
	return res, nil
}

// Upsert records tenantID for userID, creating the tenant record when missing.
func (c *Client) Upsert(ctx context.Context, tenantID, userID string, meta tenant.Metadata) error {
	res, err := c.EnsureRecord(ctx, EnsureRequest{
		TenantID:     tenantID,
		UserID:       userID,
		Email:        meta.Email,
		BusinessName: meta.BusinessName,
		ForceCreate:  meta.ForceCreate,
	})
	if err != nil {
		return err
	}
	if !strings.EqualFold(res.TenantID, tenantID) {
		c.logger.WarnContext(ctx, "tenant record service kept a different tenant",
			logger.UserID(userID),
			slog.String("requested_tenant_id", tenantID),
			slog.String("recorded_tenant_id", res.TenantID))
	}
	if res.Created {
		c.logger.InfoContext(ctx, "tenant record created", logger.TenantID(res.TenantID), logger.UserID(userID))
	}
	return nil
}

// do performs one call. Statuses in accept besides 2xx are returned without error
// and without decoding. Failures are joined with tenant.ErrRemoteUnavailable.
func (c *Client) do(ctx context.Context, method, path string, body, out any, accept ...int) (int, error) {
	if c.breaker != nil && !c.breaker.Allow() {
		return 0, errors.Join(tenant.ErrRemoteUnavailable, ErrCircuitOpen)
	}

	status, err := c.roundTrip(ctx, method, path, body, out, accept)
	if c.breaker != nil {
		switch {
		case err == nil, status >= 400 && status < 500:
			c.breaker.Success()
		case errors.Is(err, ErrMissingToken), ctx.Err() != nil:
		default:
			c.breaker.Failure()
		}
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return status, ctxErr
		}
		return status, errors.Join(tenant.ErrRemoteUnavailable, err)
	}
	return status, nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body, out any, accept []int) (int, error) {
	token, err := c.token(ctx)
	if err != nil {
		return 0, err
	}

	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(b)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), payload)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "tenant service call",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		logger.Duration(time.Since(start)))

	for _, s := range accept {
		if resp.StatusCode == s {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
			return resp.StatusCode, nil
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return resp.StatusCode, fmt.Errorf("%w: %s %s returned %d", ErrUnexpectedStatus, method, path, resp.StatusCode)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(out); err != nil {
		return resp.StatusCode, errors.Join(ErrMalformedBody, err)
	}
	return resp.StatusCode, nil
}
