package services

import "errors"

var (
	// ErrEmailTaken is returned by Signup when the email is already registered.
	ErrEmailTaken = errors.New("email already registered")

	// ErrUnknownEmail and ErrWrongPassword are the two login failures.
	// They are kept apart so the caller can tag the offending field.
	ErrUnknownEmail  = errors.New("invalid email address")
	ErrWrongPassword = errors.New("invalid password")

	// ErrPasswordTooLong is returned by Signup when the hasher cannot accept the password.
	ErrPasswordTooLong = errors.New("password too long")

	ErrUnsupportedPhoto = errors.New("unsupported photo content type")
	ErrPhotoTooLarge    = errors.New("photo too large")
	ErrStorageDisabled  = errors.New("object storage is not configured")
)
