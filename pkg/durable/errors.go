package durable

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/tenantsync/pkg/tenant"
)

var (
	// ErrNotFound matches tenant.ErrValueNotFound so a missing value reads as absent.
	ErrNotFound      = fmt.Errorf("durable: value not found: %w", tenant.ErrValueNotFound)
	ErrEmptyScope    = errors.New("durable: empty scope")
	ErrEmptyKey      = errors.New("durable: empty key")
	ErrUnknownDriver = errors.New("durable: unknown backend")
	ErrStoreFailed   = errors.New("durable: storage operation failed")
)
