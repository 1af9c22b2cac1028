package cookie_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantsync/pkg/cookie"
	"github.com/dmitrymomot/tenantsync/pkg/tenant"
)

func TestManager(t *testing.T) {
	t.Parallel()

	t.Run("set applies defaults", func(t *testing.T) {
		t.Parallel()

		m := cookie.New()
		w := httptest.NewRecorder()
		require.NoError(t, m.Set(w, "tenantId", "value"))

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "tenantId", cookies[0].Name)
		assert.Equal(t, "value", cookies[0].Value)
		assert.Equal(t, "/", cookies[0].Path)
		assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
		assert.False(t, cookies[0].HttpOnly)
	})

	t.Run("empty name is rejected", func(t *testing.T) {
		t.Parallel()

		err := cookie.New().Set(httptest.NewRecorder(), "", "v")
		assert.ErrorIs(t, err, cookie.ErrInvalidName)
	})

	t.Run("missing cookie maps to tenant value not found", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		_, err := cookie.New().Get(req, "tenantId")
		assert.ErrorIs(t, err, cookie.ErrCookieNotFound)
		assert.ErrorIs(t, err, tenant.ErrValueNotFound)
	})

	t.Run("config options are applied", func(t *testing.T) {
		t.Parallel()

		m := cookie.NewFromConfig(cookie.Config{
			Path:     "/app",
			Domain:   "example.com",
			Secure:   true,
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})
		w := httptest.NewRecorder()
		require.NoError(t, m.Set(w, "n", "v"))

		c := w.Result().Cookies()[0]
		assert.Equal(t, "/app", c.Path)
		assert.Equal(t, "example.com", c.Domain)
		assert.True(t, c.Secure)
		assert.True(t, c.HttpOnly)
		assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	})
}

func TestJar(t *testing.T) {
	t.Parallel()

	t.Run("reads request cookie", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "tenantId", Value: "from-request"})
		jar := cookie.New().Jar(httptest.NewRecorder(), req)

		v, err := jar.Get("tenantId")
		require.NoError(t, err)
		assert.Equal(t, "from-request", v)
	})

	t.Run("set is visible to later get and written with tenant options", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "tenantId", Value: "old"})
		w := httptest.NewRecorder()
		jar := cookie.New().Jar(w, req)

		err := jar.Set("tenantId", "new", tenant.CookieOptions{
			Path:     "/",
			MaxAge:   30 * 24 * time.Hour,
			SameSite: http.SameSiteLaxMode,
		})
		require.NoError(t, err)

		v, err := jar.Get("tenantId")
		require.NoError(t, err)
		assert.Equal(t, "new", v)

		c := w.Result().Cookies()[0]
		assert.Equal(t, 2592000, c.MaxAge)
		assert.Equal(t, "/", c.Path)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	})
}
