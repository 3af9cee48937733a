package auth

import "errors"

// Sentinel errors for console session handling.
var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrInvalidHash        = errors.New("auth: invalid password hash")
	ErrTokenInvalid       = errors.New("auth: invalid token")
	ErrTokenRevoked       = errors.New("auth: token has been revoked")
	ErrNoSecret           = errors.New("auth: session secret is empty")
)
