package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when a user with the same email already exists.
// Backends raise it from their unique constraint, so it holds under concurrent signups.
var ErrDuplicateEmail = errors.New("email already registered")
