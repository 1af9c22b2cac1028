package tenant

import (
	"errors"

	"github.com/google/uuid"
)

// Namespace is the fixed name-based UUID namespace for tenant ids derived from user ids.
// Changing it changes every derived tenant id.
var Namespace = uuid.MustParse("8d6f3c2e-41b7-5a09-9e3d-7c2b1f4a6e58")

// Deriver maps a user id to a tenant id. Implementations must be pure.
type Deriver func(userID string) (uuid.UUID, error)

// RandomSource produces a fresh random tenant id.
type RandomSource func() (uuid.UUID, error)

// DeriveDeterministic derives the tenant id for userID in the default Namespace.
func DeriveDeterministic(userID string) (uuid.UUID, error) {
	return NameBasedDeriver(Namespace)(userID)
}

// NameBasedDeriver returns a Deriver producing RFC 4122 version 5 (SHA-1) UUIDs
// for the given namespace.
func NameBasedDeriver(namespace uuid.UUID) Deriver {
	return func(userID string) (uuid.UUID, error) {
		if userID == "" {
			return uuid.Nil, errors.Join(ErrDerivationFailure, errors.New("empty user id"))
		}
		if namespace == uuid.Nil {
			return uuid.Nil, errors.Join(ErrDerivationFailure, errors.New("nil namespace"))
		}
		return uuid.NewSHA1(namespace, []byte(userID)), nil
	}
}

func defaultRandom() (uuid.UUID, error) {
	return uuid.NewRandom()
}
