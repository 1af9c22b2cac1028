package tenant_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantsync/pkg/tenant"
)

type fixture struct {
	durable *mockDurable
	cookies *mockCookies
	remote  *mockRemote
}

func newFixture() *fixture {
	return &fixture{
		durable: newMockDurable(),
		cookies: newMockCookies(),
		remote:  newMockRemote(),
	}
}

func (f *fixture) storage() tenant.Storage {
	return tenant.Storage{Durable: f.durable, Cookie: f.cookies, Remote: f.remote}
}

func TestResolver_Precedence(t *testing.T) {
	t.Parallel()

	t.Run("session claim wins over durable storage", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.durable.values["tenantId"] = tenantB
		sess := newSession("user-1", map[string]string{"custom:tenantId": tenantA})

		id, err := tenant.NewResolver().Resolve(context.Background(), tenant.Request{Session: sess}, f.storage())
		require.NoError(t, err)

		assert.Equal(t, tenantA, id.TenantID.String())
		assert.Equal(t, tenant.SourceSession, id.Source)
		assert.Equal(t, "user-1", id.UserID)
		assert.Equal(t, tenantA, f.durable.value("tenantId"))
		assert.Equal(t, tenantA, f.cookies.value("tenantId"))
		assert.Zero(t, f.remote.fetchCalls(), "remote must not be consulted when the claim is valid")
		require.Len(t, f.remote.upsertCalls(), 1)
		assert.Equal(t, tenantA, f.remote.upsertCalls()[0].tenantID)
	})

	t.Run("remote wins over local storage and is not upserted", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.remote.records["user-1"] = tenantB
		f.durable.values["tenantId"] = tenantC
		f.cookies.values["tenantId"] = tenantD

		id, err := tenant.NewResolver().Resolve(context.Background(), tenant.Request{Session: newSession("user-1", nil)}, f.storage())
		require.NoError(t, err)

		assert.Equal(t, tenantB, id.TenantID.String())
		assert.Equal(t, tenant.SourceRemote, id.Source)
		assert.Equal(t, tenantB, f.durable.value("tenantId"))
		assert.Equal(t, tenantB, f.cookies.value("tenantId"))
		assert.Empty(t, f.remote.upsertCalls())
	})

	t.Run("durable wins over cookie and cookie is overwritten", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.durable.values["tenantId"] = tenantC
		f.cookies.values["tenantId"] = tenantD

		id, err := tenant.NewResolver().Resolve(context.Background(), tenant.Request{Session: newSession("user-1", nil)}, f.storage())
		require.NoError(t, err)

		assert.Equal(t, tenantC, id.TenantID.String())
		assert.Equal(t, tenant.SourceDurable, id.Source)
		assert.Equal(t, tenantC, f.cookies.value("tenantId"))
		require.Len(t, f.remote.upsertCalls(), 1)
		assert.Equal(t, tenantC, f.remote.upsertCalls()[0].tenantID)
	})

	t.Run("cookie is used when nothing else is valid", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.durable.values["tenantId"] = "garbage"
		f.cookies.values["tenantId"] = tenantD

		id, err := tenant.NewResolver().Resolve(context.Background(), tenant.Request{Session: newSession("user-1", nil)}, f.storage())
		require.NoError(t, err)

		assert.Equal(t, tenantD, id.TenantID.String())
		assert.Equal(t, tenant.SourceCookie, id.Source)
		assert.Equal(t, tenantD, f.durable.value("tenantId"))
	})

	t.Run("malformed claim is treated as absent", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.remote.records["user-1"] = tenantB
		sess := newSession("user-1", map[string]string{"custom:tenantId": "tenant-acme"})

		id, err := tenant.NewResolver().Resolve(context.Background(), tenant.Request{Session: sess}, f.storage())
		require.NoError(t, err)

		assert.Equal(t, tenantB, id.TenantID.String())
		assert.Equal(t, tenant.SourceRemote, id.Source)
	})

	t.Run("uppercase stored value is normalized", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.durable.values["tenantId"] = "550E8400-E29B-41D4-A716-446655440000"

		id, err := tenant.NewResolver().Resolve(context.Background(), tenant.Request{Session: newSession("user-1", nil)}, f.storage())
		require.NoError(t, err)

		assert.Equal(t, tenantA, id.TenantID.String())
		assert.Equal(t, tenantA, f.durable.value("tenantId"))
	})

	t.Run("custom claim key", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		sess := newSession("user-1", map[string]string{"tid": tenantA})

		id, err := tenant.NewResolver(tenant.WithClaimKey("tid")).Resolve(context.Background(), tenant.Request{Session: sess}, f.storage())
		require.NoError(t, err)
		assert.Equal(t, tenant.SourceSession, id.Source)
	})
}

func TestResolver_EndToEndScenario(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.durable.values["tenantId"] = "550e8400-e29b-41d4-a716-446655440000"
	f.cookies.values["tenantId"] = "not-a-uuid"

	id, err := tenant.NewResolver().Resolve(context.Background(), tenant.Request{Session: newSession("user-1", nil)}, f.storage())
	require.NoError(t, err)

	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", id.TenantID.String())
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", f.cookies.value("tenantId"))
	upserts := f.remote.upsertCalls()
	require.Len(t, upserts, 1)
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", upserts[0].tenantID)
	assert.Equal(t, "user-1", upserts[0].userID)
	assert.Equal(t, "user-1@example.com", upserts[0].meta.Email)
}

func TestResolver_NewAccount(t *testing.T) {
	t.Parallel()

	t.Run("derives deterministic id and persists everywhere", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		want, err := tenant.DeriveDeterministic("user-42")
		require.NoError(t, err)

		id, err := tenant.NewResolver().Resolve(context.Background(), tenant.Request{
			Session:    newSession("user-42", nil),
			NewAccount: true,
			Metadata:   tenant.Metadata{BusinessName: "Acme", ForceCreate: true},
		}, f.storage())
		require.NoError(t, err)

		assert.Equal(t, want, id.TenantID)
		assert.Equal(t, tenant.SourceDerived, id.Source)
		assert.Equal(t, want.String(), f.durable.value("tenantId"))
		assert.Equal(t, want.String(), f.cookies.value("tenantId"))
		upserts := f.remote.upsertCalls()
		require.Len(t, upserts, 1)
		assert.Equal(t, want.String(), upserts[0].tenantID)
		assert.Equal(t, "Acme", upserts[0].meta.BusinessName)
		assert.True(t, upserts[0].meta.ForceCreate)
	})

	t.Run("existing value beats derivation for new account", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.cookies.values["tenantId"] = tenantD

		id, err := tenant.NewResolver().Resolve(context.Background(), tenant.Request{
			Session:    newSession("user-42", nil),
			NewAccount: true,
		}, f.storage())
		require.NoError(t, err)
		assert.Equal(t, tenantD, id.TenantID.String())
	})

	t.Run("derivation failure falls back to random", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		random := uuid.MustParse(tenantB)
		resolver := tenant.NewResolver(
			tenant.WithDeriver(func(string) (uuid.UUID, error) { return uuid.Nil, tenant.ErrDerivationFailure }),
			tenant.WithRandom(func() (uuid.UUID, error) { return random, nil }),
		)

		id, err := resolver.Resolve(context.Background(), tenant.Request{
			Session:    newSession("user-42", nil),
			NewAccount: true,
		}, f.storage())
		require.NoError(t, err)

		assert.Equal(t, random, id.TenantID)
		assert.Equal(t, tenant.SourceRandom, id.Source)
		assert.Equal(t, tenantB, f.durable.value("tenantId"))
	})

	t.Run("random failure surfaces derivation failure without writes", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		resolver := tenant.NewResolver(
			tenant.WithDeriver(func(string) (uuid.UUID, error) { return uuid.Nil, errBoom }),
			tenant.WithRandom(func() (uuid.UUID, error) { return uuid.Nil, errBoom }),
		)

		_, err := resolver.Resolve(context.Background(), tenant.Request{
			Session:    newSession("user-42", nil),
			NewAccount: true,
		}, f.storage())
		require.ErrorIs(t, err, tenant.ErrDerivationFailure)

		assert.Zero(t, f.durable.setCalls())
		assert.Zero(t, f.cookies.setCalls())
		assert.Empty(t, f.remote.upsertCalls())
	})
}

func TestResolver_Blocked(t *testing.T) {
	t.Parallel()

	t.Run("no valid identifier without new account flag", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.cookies.values["tenantId"] = "not-a-uuid"

		_, err := tenant.NewResolver().Resolve(context.Background(), tenant.Request{Session: newSession("user-1", nil)}, f.storage())
		require.ErrorIs(t, err, tenant.ErrNoValidIdentifier)

		assert.Zero(t, f.durable.setCalls())
		assert.Zero(t, f.cookies.setCalls())
		assert.Empty(t, f.remote.upsertCalls())
		assert.Equal(t, "not-a-uuid", f.cookies.value("tenantId"))
	})

	t.Run("remote outage does not mint a tenant", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.remote.fetchErr = tenant.ErrRemoteUnavailable

		_, err := tenant.NewResolver().Resolve(context.Background(), tenant.Request{Session: newSession("user-1", nil)}, f.storage())
		require.ErrorIs(t, err, tenant.ErrNoValidIdentifier)
		assert.Zero(t, f.durable.setCalls())
	})

	t.Run("missing session", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		_, err := tenant.NewResolver().Resolve(context.Background(), tenant.Request{}, f.storage())
		require.ErrorIs(t, err, tenant.ErrNoSession)

		_, err = tenant.NewResolver().Resolve(context.Background(), tenant.Request{Session: &tenant.Session{}}, f.storage())
		require.ErrorIs(t, err, tenant.ErrNoSession)
		assert.Zero(t, f.remote.fetchCalls())
	})
}

func TestResolver_Failures(t *testing.T) {
	t.Parallel()

	t.Run("remote unavailable falls back to local and still tries upsert", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.remote.fetchErr = tenant.ErrRemoteUnavailable
		f.remote.upsertErr = tenant.ErrRemoteUnavailable
		f.durable.values["tenantId"] = tenantC

		id, err := tenant.NewResolver().Resolve(context.Background(), tenant.Request{Session: newSession("user-1", nil)}, f.storage())
		require.NoError(t, err)

		assert.Equal(t, tenantC, id.TenantID.String())
		assert.Equal(t, tenantC, f.cookies.value("tenantId"))
		assert.Len(t, f.remote.upsertCalls(), 1)
	})

	t.Run("failed upsert is retried by the next resolution", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.remote.upsertErr = tenant.ErrRemoteUnavailable
		f.durable.values["tenantId"] = tenantC
		resolver := tenant.NewResolver()
		req := tenant.Request{Session: newSession("user-1", nil)}

		_, err := resolver.Resolve(context.Background(), req, f.storage())
		require.NoError(t, err)

		f.remote.mu.Lock()
		f.remote.upsertErr = nil
		f.remote.mu.Unlock()

		id, err := resolver.Resolve(context.Background(), req, f.storage())
		require.NoError(t, err)
		assert.Equal(t, tenant.SourceDurable, id.Source)

		upserts := f.remote.upsertCalls()
		require.Len(t, upserts, 2)
		assert.Equal(t, tenantC, upserts[1].tenantID)
	})

	t.Run("one failed write does not prevent the others", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.durable.setErr = errBoom
		sess := newSession("user-1", map[string]string{"custom:tenantId": tenantA})

		id, err := tenant.NewResolver().Resolve(context.Background(), tenant.Request{Session: sess}, f.storage())
		require.NoError(t, err)

		assert.Equal(t, tenantA, id.TenantID.String())
		assert.Equal(t, tenantA, f.cookies.value("tenantId"))
		assert.Len(t, f.remote.upsertCalls(), 1)
	})

	t.Run("durable read failure counts as absent", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.durable.getErr = errBoom
		f.cookies.values["tenantId"] = tenantD

		id, err := tenant.NewResolver().Resolve(context.Background(), tenant.Request{Session: newSession("user-1", nil)}, f.storage())
		require.NoError(t, err)
		assert.Equal(t, tenant.SourceCookie, id.Source)
	})

	t.Run("nil locations are skipped", func(t *testing.T) {
		t.Parallel()

		sess := newSession("user-1", map[string]string{"custom:tenantId": tenantA})
		id, err := tenant.NewResolver().Resolve(context.Background(), tenant.Request{Session: sess}, tenant.Storage{})
		require.NoError(t, err)
		assert.Equal(t, tenantA, id.TenantID.String())
	})

	t.Run("canceled context returns no identity", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.durable.values["tenantId"] = tenantC
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		id, err := tenant.NewResolver().Resolve(ctx, tenant.Request{Session: newSession("user-1", nil)}, f.storage())
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, tenant.Identity{}, id)
	})

	t.Run("cancellation during remote fetch writes nothing", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.remote.records["user-1"] = tenantA
		f.cookies.values["tenantId"] = "not-a-uuid"
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		f.remote.onFetch = cancel

		id, err := tenant.NewResolver().Resolve(ctx, tenant.Request{Session: newSession("user-1", nil)}, f.storage())
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, tenant.Identity{}, id)
		assert.Equal(t, 1, f.remote.fetchCalls())
		assert.Zero(t, f.durable.setCalls())
		assert.Zero(t, f.cookies.setCalls())
		assert.Equal(t, "not-a-uuid", f.cookies.value("tenantId"))
		assert.Empty(t, f.remote.upsertCalls())
	})
}

func TestResolver_Idempotent(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.durable.values["tenantId"] = tenantC
	f.cookies.values["tenantId"] = tenantD
	resolver := tenant.NewResolver()
	req := tenant.Request{Session: newSession("user-1", nil)}

	first, err := resolver.Resolve(context.Background(), req, f.storage())
	require.NoError(t, err)
	second, err := resolver.Resolve(context.Background(), req, f.storage())
	require.NoError(t, err)

	assert.Equal(t, first.TenantID, second.TenantID)
	assert.Equal(t, tenant.SourceRemote, second.Source, "second pass short-circuits at the remote record")
	assert.Equal(t, tenantC, f.durable.value("tenantId"))
	assert.Equal(t, tenantC, f.cookies.value("tenantId"))
	assert.Len(t, f.remote.upsertCalls(), 1, "no upsert once the remote agrees")
}

func TestResolver_CookieOptions(t *testing.T) {
	t.Parallel()

	f := newFixture()
	sess := newSession("user-1", map[string]string{"custom:tenantId": tenantA})

	_, err := tenant.NewResolver().Resolve(context.Background(), tenant.Request{Session: sess}, f.storage())
	require.NoError(t, err)

	opts := f.cookies.options["tenantId"]
	assert.Equal(t, "/", opts.Path)
	assert.Equal(t, 30*24*time.Hour, opts.MaxAge)
	assert.Equal(t, 2592000.0, opts.MaxAge.Seconds())
	assert.Equal(t, http.SameSiteLaxMode, opts.SameSite)
}

func TestResolver_Metrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	metrics := tenant.NewMetrics(reg)
	resolver := tenant.NewResolver(tenant.WithMetrics(metrics))

	f := newFixture()
	f.remote.fetchErr = tenant.ErrRemoteUnavailable
	f.durable.values["tenantId"] = tenantC
	f.cookies.values["tenantId"] = tenantD

	_, err := resolver.Resolve(context.Background(), tenant.Request{Session: newSession("user-1", nil)}, f.storage())
	require.NoError(t, err)
	_, err = resolver.Resolve(context.Background(), tenant.Request{Session: newSession("user-2", nil)}, tenant.Storage{})
	require.ErrorIs(t, err, tenant.ErrNoValidIdentifier)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ResolutionsTotal.WithLabelValues("durable", tenant.OutcomeResolved)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ResolutionsTotal.WithLabelValues("", tenant.OutcomeNoValidIdentifier)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RemoteErrorsTotal.WithLabelValues("fetch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RepairsTotal.WithLabelValues("cookie")))
}
