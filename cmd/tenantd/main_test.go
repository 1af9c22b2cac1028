package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantsync/pkg/authsession"
	"github.com/dmitrymomot/tenantsync/pkg/config"
	"github.com/dmitrymomot/tenantsync/pkg/durable"
	"github.com/dmitrymomot/tenantsync/pkg/tenant"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return strings.TrimSpace(out.String()), err
}

func TestConfigDefaults(t *testing.T) {
	cfg, err := config.Load[Config](config.WithEnvironment(map[string]string{}))
	require.NoError(t, err)

	assert.Equal(t, durable.BackendMemory, cfg.Durable.Backend)
	assert.Equal(t, tenant.DefaultClaimKey, cfg.Resolver.ClaimKey)
	assert.Equal(t, tenant.DefaultCookieName, cfg.Resolver.CookieName)
	assert.Equal(t, 30*24*time.Hour, cfg.Resolver.CookieMaxAge)
	assert.True(t, cfg.Resolver.SessionRefresh)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}

func TestResolverOptions(t *testing.T) {
	t.Run("default namespace", func(t *testing.T) {
		opts, err := ResolverConfig{}.options(nil, nil)
		require.NoError(t, err)
		assert.NotEmpty(t, opts)
	})

	t.Run("invalid namespace", func(t *testing.T) {
		_, err := ResolverConfig{Namespace: "nope"}.options(nil, nil)
		assert.Error(t, err)
	})
}

func TestNewLogger(t *testing.T) {
	_, err := newLogger(Config{Env: "production", LogLevel: "warn"})
	require.NoError(t, err)

	_, err = newLogger(Config{LogLevel: "loud"})
	assert.Error(t, err)
}

func TestDeriveCommand(t *testing.T) {
	want, err := tenant.DeriveDeterministic("user-123")
	require.NoError(t, err)

	out, err := execute(t, "derive", "user-123")
	require.NoError(t, err)
	assert.Equal(t, want.String(), out)

	again, err := execute(t, "derive", "user-123")
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestTokenCommand(t *testing.T) {
	const secret = "cli-test-secret"
	const tenantA = "550e8400-e29b-41d4-a716-446655440000"
	t.Setenv("AUTH_JWT_SECRET", secret)

	out, err := execute(t, "token", "user-123", "--tenant", tenantA, "--email", "a@example.com")
	require.NoError(t, err)

	verifier, err := authsession.New(secret)
	require.NoError(t, err)
	sess, err := verifier.Verify(out)
	require.NoError(t, err)
	assert.Equal(t, "user-123", sess.UserID)
	assert.Equal(t, "a@example.com", sess.Email)
	assert.Equal(t, tenantA, sess.Claim(tenant.DefaultClaimKey))
}
