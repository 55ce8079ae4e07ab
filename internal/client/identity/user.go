// Package identity is the local mock identity store: a JSON list of user
// records kept under a single key of the persistent store.
package identity

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/authsim/internal/common"
)

// User is a stored account. PasswordDigest is never the plaintext.
type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	PasswordDigest string    `json:"password"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewUser builds a record with a fresh random id.
func NewUser(username, email, digest string, createdAt time.Time) User {
	return User{
		ID:             uuid.NewString(),
		Username:       username,
		Email:          email,
		PasswordDigest: digest,
		CreatedAt:      createdAt.UTC(),
	}
}

// PublicUser is the part of a User that may leave the identity store.
type PublicUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Public drops the password digest.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// ConflictError reports which unique field an insert collided on.
type ConflictError struct {
	Field string // "email" or "username"
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("This %s is already registered", e.Field)
}

func (e *ConflictError) Unwrap() error {
	return common.ErrAlreadyRegistered
}
