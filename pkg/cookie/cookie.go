package cookie

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrymomot/tenantsync/pkg/tenant"
)

// Manager writes and reads plain cookies with shared default attributes.
type Manager struct {
	defaults Options
}

// New creates a Manager. Defaults are path "/", SameSite=Lax, not HttpOnly.
func New(opts ...Option) *Manager {
	defaults := Options{
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	}
	return &Manager{defaults: applyOptions(defaults, opts)}
}

// Set writes a cookie using the manager defaults overridden by opts.
func (m *Manager) Set(w http.ResponseWriter, name, value string, opts ...Option) error {
	if name == "" {
		return ErrInvalidName
	}
	options := applyOptions(m.defaults, opts)

	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     options.Path,
		Domain:   options.Domain,
		MaxAge:   options.MaxAge,
		Secure:   options.Secure,
		HttpOnly: options.HttpOnly,
		SameSite: options.SameSite,
	})
	return nil
}

// Get returns the named cookie value or ErrCookieNotFound.
func (m *Manager) Get(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrCookieNotFound
		}
		return "", err
	}
	return c.Value, nil
}

// Jar binds the manager to one request/response pair.
func (m *Manager) Jar(w http.ResponseWriter, r *http.Request) *Jar {
	return &Jar{m: m, w: w, r: r, written: make(map[string]string)}
}

// Store returns the jar as a tenant.CookieStore; it matches tenant.CookieSource.
func (m *Manager) Store(w http.ResponseWriter, r *http.Request) tenant.CookieStore {
	return m.Jar(w, r)
}

// Jar is a request-scoped tenant.CookieStore. Values set through the jar are
// returned by later Gets of the same request.
type Jar struct {
	m       *Manager
	w       http.ResponseWriter
	r       *http.Request
	mu      sync.Mutex
	written map[string]string
}

// Get returns a value set earlier in the request, then the request cookie.
func (j *Jar) Get(name string) (string, error) {
	j.mu.Lock()
	v, ok := j.written[name]
	j.mu.Unlock()
	if ok {
		return v, nil
	}
	return j.m.Get(j.r, name)
}

// Set writes the cookie to the response and remembers it for later Gets.
func (j *Jar) Set(name, value string, opts tenant.CookieOptions) error {
	extra := make([]Option, 0, 3)
	if opts.Path != "" {
		extra = append(extra, WithPath(opts.Path))
	}
	if opts.MaxAge > 0 {
		extra = append(extra, WithMaxAge(int(opts.MaxAge/time.Second)))
	}
	if opts.SameSite != 0 {
		extra = append(extra, WithSameSite(opts.SameSite))
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.m.Set(j.w, name, value, extra...); err != nil {
		return err
	}
	j.written[name] = value
	return nil
}
