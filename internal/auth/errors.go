package auth

import "errors"

// Rejection reasons produced by Strategy, in the order they are checked.
var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
	ErrNoSubject    = errors.New("invalid token: no subject")
	ErrTokenExpired = errors.New("expired")
	ErrUnknownUser  = errors.New("user does not exist")
)

var (
	ErrEmptySecret = errors.New("jwt secret must not be empty")
	ErrInvalidTTL  = errors.New("token ttl must be positive")
	ErrInvalidCost = errors.New("bcrypt cost out of range")

	// ErrPasswordTooLong is returned by Hash for plaintexts bcrypt would truncate.
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
)
