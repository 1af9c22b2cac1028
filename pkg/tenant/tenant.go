package tenant

import (
	"time"

	"github.com/google/uuid"
)

// Source records where the current tenant id came from.
type Source string

const (
	// SourceSession is a tenant id carried by the identity token claims.
	SourceSession Source = "session"
	// SourceRemote is the tenant record service.
	SourceRemote Source = "remote"
	// SourceDurable is the durable key-value storage.
	SourceDurable Source = "durable"
	// SourceCookie is the short-lived tenant cookie.
	SourceCookie Source = "cookie"
	// SourceDerived is a name-based UUID derived from the user id.
	SourceDerived Source = "derived"
	// SourceRandom is a random UUID minted because derivation failed.
	SourceRandom Source = "random"
)

// String returns the source name.
func (s Source) String() string { return string(s) }

// Default names for the storage locations that hold the tenant id.
const (
	DefaultStorageKey   = "tenantId"
	DefaultCookieName   = "tenantId"
	DefaultClaimKey     = "custom:tenantId"
	DefaultCookieMaxAge = 30 * 24 * time.Hour
)

// Identity is the resolved tenant for one user session.
type Identity struct {
	TenantID   uuid.UUID `json:"tenantId"`
	Source     Source    `json:"source"`
	UserID     string    `json:"userId"`
	ResolvedAt time.Time `json:"resolvedAt"`
}

// Session is the authenticated user as seen by the resolver.
// Claims holds custom identity-token attributes, one of which may carry the tenant id.
type Session struct {
	UserID string
	Email  string
	Token  string
	Claims map[string]string
}

// Claim returns the claim value or empty string when the claim is not set.
func (s *Session) Claim(key string) string {
	if s == nil || s.Claims == nil {
		return ""
	}
	return s.Claims[key]
}

// Metadata is sent along with a remote upsert so a missing tenant record can be created.
type Metadata struct {
	Email        string `json:"email,omitempty"`
	BusinessName string `json:"businessName,omitempty"`
	ForceCreate  bool   `json:"forceCreate,omitempty"`
}

// Request describes one resolution attempt.
// NewAccount must only be set by a genuine sign-up flow: it is the only case where a
// tenant id may be minted when no location holds one.
type Request struct {
	Session    *Session
	NewAccount bool
	Metadata   Metadata
}

// IsValidID reports whether s is a UUID in the canonical hyphenated 8-4-4-4-12 form.
// Hex digits are matched case-insensitively.
func IsValidID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// ParseID parses a canonical UUID string.
// Returns ErrInvalidIdentifierFormat for anything IsValidID rejects.
func ParseID(s string) (uuid.UUID, error) {
	if !IsValidID(s) {
		return uuid.Nil, ErrInvalidIdentifierFormat
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, ErrInvalidIdentifierFormat
	}
	return id, nil
}
