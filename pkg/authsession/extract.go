package authsession

import (
	"net/http"
	"strings"
)

// TokenExtractor pulls a raw token out of a request.
type TokenExtractor func(r *http.Request) (string, error)

// BearerToken reads "Authorization: Bearer <token>".
func BearerToken(r *http.Request) (string, error) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}

// CookieToken reads the token from the named cookie.
func CookieToken(name string) TokenExtractor {
	return func(r *http.Request) (string, error) {
		c, err := r.Cookie(name)
		if err != nil || c.Value == "" {
			return "", ErrMissingToken
		}
		return c.Value, nil
	}
}

// FirstOf returns the first token any extractor finds.
func FirstOf(extractors ...TokenExtractor) TokenExtractor {
	return func(r *http.Request) (string, error) {
		for _, ex := range extractors {
			if token, err := ex(r); err == nil {
				return token, nil
			}
		}
		return "", ErrMissingToken
	}
}
