// Package domain contains the core business entities for Alexander Files.
// These are pure Go structs with no external dependencies, representing
// the fundamental concepts of the file hosting system.
package domain

import (
	"time"
)

// User represents a registered account.
// Users own files and authenticate through session tokens.
type User struct {
	// ID is the opaque identifier assigned when the user is stored.
	ID string `json:"id"`

	// Email is the unique email address, compared case-sensitively.
	Email string `json:"email"`

	// PasswordHash is the hex digest of the user's password.
	// This should never be exposed in API responses.
	PasswordHash string `json:"-"`

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time `json:"-"`
}

// NewUser creates a new User with default values.
func NewUser(email, passwordHash string) *User {
	return &User{
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
}
