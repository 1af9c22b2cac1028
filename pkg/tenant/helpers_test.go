package tenant_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/goleak"

	"github.com/dmitrymomot/tenantsync/pkg/tenant"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// mockDurable implements tenant.DurableStorage for testing.
type mockDurable struct {
	mu     sync.Mutex
	values map[string]string
	getErr error
	setErr error
	sets   int
}

func newMockDurable() *mockDurable {
	return &mockDurable{values: make(map[string]string)}
}

func (m *mockDurable) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.values[key]
	if !ok {
		return "", tenant.ErrValueNotFound
	}
	return v, nil
}

func (m *mockDurable) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *mockDurable) value(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key]
}

func (m *mockDurable) setCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}

// mockCookies implements tenant.CookieStore for testing.
type mockCookies struct {
	mu      sync.Mutex
	values  map[string]string
	options map[string]tenant.CookieOptions
	setErr  error
	sets    int
}

func newMockCookies() *mockCookies {
	return &mockCookies{
		values:  make(map[string]string),
		options: make(map[string]tenant.CookieOptions),
	}
}

func (m *mockCookies) Get(name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[name]
	if !ok {
		return "", tenant.ErrValueNotFound
	}
	return v, nil
}

func (m *mockCookies) Set(name, value string, opts tenant.CookieOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.setErr != nil {
		return m.setErr
	}
	m.values[name] = value
	m.options[name] = opts
	return nil
}

func (m *mockCookies) value(name string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[name]
}

func (m *mockCookies) setCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}

type upsertCall struct {
	tenantID string
	userID   string
	meta     tenant.Metadata
}

// mockRemote implements tenant.RemoteService for testing.
type mockRemote struct {
	mu        sync.Mutex
	records   map[string]string
	fetchErr  error
	upsertErr error
	upserts   []upsertCall
	fetches   int
	onFetch   func()
}

func newMockRemote() *mockRemote {
	return &mockRemote{records: make(map[string]string)}
}

func (m *mockRemote) FetchByUser(ctx context.Context, userID string) (string, error) {
	if m.onFetch != nil {
		m.onFetch()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches++
	if m.fetchErr != nil {
		return "", m.fetchErr
	}
	v, ok := m.records[userID]
	if !ok {
		return "", tenant.ErrTenantNotFound
	}
	return v, nil
}

func (m *mockRemote) Upsert(ctx context.Context, tenantID, userID string, meta tenant.Metadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts = append(m.upserts, upsertCall{tenantID: tenantID, userID: userID, meta: meta})
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.records[userID] = tenantID
	return nil
}

func (m *mockRemote) upsertCalls() []upsertCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]upsertCall(nil), m.upserts...)
}

func (m *mockRemote) fetchCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetches
}

// mockProvider implements tenant.SessionProvider for testing.
type mockProvider struct {
	mu         sync.Mutex
	session    *tenant.Session
	sessionErr error
	attrs      map[string]string
	attrsErr   error
	refreshOK  bool
	refreshes  int
	attrCalls  int
}

func (m *mockProvider) GetSession(ctx context.Context) (*tenant.Session, error) {
	if m.sessionErr != nil {
		return nil, m.sessionErr
	}
	if m.session == nil {
		return nil, tenant.ErrNoSession
	}
	return m.session, nil
}

func (m *mockProvider) FetchAttributes(ctx context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attrCalls++
	return m.attrs, m.attrsErr
}

func (m *mockProvider) ForceRefresh(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshes++
	return m.refreshOK
}

func (m *mockProvider) refreshCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshes
}

var errBoom = errors.New("boom")

const (
	tenantA = "550e8400-e29b-41d4-a716-446655440000"
	tenantB = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
	tenantC = "123e4567-e89b-12d3-a456-426614174000"
	tenantD = "f47ac10b-58cc-4372-a567-0e02b2c3d479"
)

func newSession(userID string, claims map[string]string) *tenant.Session {
	return &tenant.Session{UserID: userID, Email: userID + "@example.com", Claims: claims}
}
