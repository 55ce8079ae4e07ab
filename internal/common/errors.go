// Package common defines the sentinel errors shared by the authsim client
// layers. Callers should match them with errors.Is.
package common

import "errors"

var (
	// Lookup errors.
	ErrorNotFound = errors.New("not found")

	// Bad field input; recoverable and reported per field.
	ErrValidation = errors.New("validation error")

	// Credential errors. Login never says which factor failed.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAlreadyRegistered  = errors.New("already registered")

	// Token errors are recovered locally by treating the session as absent.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Persistence failures.
	ErrStorage = errors.New("storage error")
)
