package tenant

import "errors"

var (
	// ErrNoValidIdentifier is returned when no location holds a valid tenant id and the
	// request is not a new-account flow. The caller must block tenant-scoped views and
	// offer retry or re-authentication.
	ErrNoValidIdentifier = errors.New("no valid tenant identifier")

	// ErrInvalidIdentifierFormat is returned when a candidate value is not a canonical UUID.
	// The resolver treats it as an absent value.
	ErrInvalidIdentifierFormat = errors.New("invalid tenant identifier format")

	// ErrRemoteUnavailable is returned by remote adapters when the tenant record service
	// cannot be reached or answers with a server error.
	ErrRemoteUnavailable = errors.New("tenant record service unavailable")

	// ErrDerivationFailure is returned when a tenant id could not be derived from the user id.
	ErrDerivationFailure = errors.New("tenant id derivation failed")

	// ErrTenantNotFound is returned by remote adapters when the user has no tenant record.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrValueNotFound is returned by durable storage and cookie adapters for missing keys.
	ErrValueNotFound = errors.New("value not found")

	// ErrNoSession is returned when there is no authenticated user to resolve a tenant for.
	ErrNoSession = errors.New("no authenticated session")

	// ErrNoTenantInContext is returned when no tenant is found in context.
	ErrNoTenantInContext = errors.New("no tenant in context")
)
