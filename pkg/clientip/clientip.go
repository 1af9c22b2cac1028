package clientip

import (
	"net"
	"net/http"
	"strings"
)

// DefaultHeaders are the proxy headers consulted by default, highest priority first.
var DefaultHeaders = []string{"CF-Connecting-IP", "X-Forwarded-For", "X-Real-IP"}

// Resolver extracts the originating client address from a request.
// Only the configured headers are trusted; the TCP peer address is the fallback.
type Resolver struct {
	headers []string
}

// New creates a Resolver trusting headers in the given order.
// With no headers only RemoteAddr is used.
func New(headers ...string) *Resolver {
	hs := make([]string, 0, len(headers))
	for _, h := range headers {
		if h = strings.TrimSpace(h); h != "" {
			hs = append(hs, http.CanonicalHeaderKey(h))
		}
	}
	return &Resolver{headers: hs}
}

// IP returns the normalized client address, or an empty string when none is valid.
func (res *Resolver) IP(r *http.Request) string {
	for _, h := range res.headers {
		v := r.Header.Get(h)
		if v == "" {
			continue
		}
		// X-Forwarded-For style lists: the first valid entry is the client.
		for part := range strings.SplitSeq(v, ",") {
			if ip := parseIP(part); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return parseIP(r.RemoteAddr)
	}
	return parseIP(host)
}

// KeyFunc adapts the resolver to rate limiter key functions.
// Requests without a valid address share the "unknown" bucket.
func (res *Resolver) KeyFunc(r *http.Request) (string, error) {
	if ip := res.IP(r); ip != "" {
		return ip, nil
	}
	return "unknown", nil
}

func parseIP(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return ""
	}
	return ip.String()
}
