package types

import "time"

// User represents an account in the system.
// It contains identity, profile, and audit metadata.
type User struct {
	// ID is the opaque unique identifier of the user.
	ID string `json:"id" db:"id"`

	// FirstName is stored in title case.
	FirstName string `json:"firstName" db:"first_name"`

	// LastName is stored in title case.
	LastName string `json:"lastName" db:"last_name"`

	// Email is the user's email address. It is unique across all users
	// and is the login identifier.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// ProfilePhoto is the URL of the user's avatar.
	ProfilePhoto string `json:"profilePhoto" db:"profile_photo"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// FullName joins the first and last name with a single space.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}
