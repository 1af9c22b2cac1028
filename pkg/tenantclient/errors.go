package tenantclient

import "errors"

// Transport-level failures. Every one of them is also joined with
// tenant.ErrRemoteUnavailable when returned from a client call.
var (
	ErrCircuitOpen      = errors.New("tenantclient: circuit breaker is open")
	ErrUnexpectedStatus = errors.New("tenantclient: unexpected response status")
	ErrMalformedBody    = errors.New("tenantclient: malformed response body")
	ErrMissingToken     = errors.New("tenantclient: no session token in context")
	ErrInvalidBaseURL   = errors.New("tenantclient: invalid base URL")
)
