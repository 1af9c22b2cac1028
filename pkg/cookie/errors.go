package cookie

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/tenantsync/pkg/tenant"
)

var (
	// ErrCookieNotFound matches tenant.ErrValueNotFound so the resolver treats a
	// missing cookie as an absent value.
	ErrCookieNotFound = fmt.Errorf("cookie.not_found: %w", tenant.ErrValueNotFound)
	ErrInvalidName    = errors.New("cookie.invalid_name")
)
