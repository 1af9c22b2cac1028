package authsession

import "errors"

var (
	ErrMissingSecret = errors.New("authsession: missing signing secret")
	ErrMissingToken  = errors.New("authsession: no token in request")
	ErrInvalidToken  = errors.New("authsession: invalid token")
	ErrMissingUserID = errors.New("authsession: token has no subject")
)
