// Package user defines the credential store consumed by the password
// provider: a username lookup returning stored credentials and roles.
package user

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a username is unknown to the store.
var ErrNotFound = errors.New("user not found")

// User holds the stored credentials for one account. PasswordHash is a
// bcrypt hash; the password comparator is opaque to the rest of the system.
type User struct {
	Username     string
	DisplayName  string
	PasswordHash []byte
	Roles        []string
}

// Store looks up stored user credentials by username.
type Store interface {
	// FindByUsername returns the stored user or ErrNotFound.
	FindByUsername(ctx context.Context, username string) (*User, error)
}
