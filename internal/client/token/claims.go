package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/authsim/internal/client/identity"
)

// Claims is the token payload. Exp is a Unix timestamp in milliseconds.
type Claims struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	Exp       int64     `json:"exp"`
}

var _ jwt.Claims = (*Claims)(nil)

// ExpiresAt returns Exp as a time.
func (c Claims) ExpiresAt() time.Time {
	return time.UnixMilli(c.Exp).UTC()
}

// User rebuilds the public identity carried by the token.
func (c Claims) User() identity.PublicUser {
	return identity.PublicUser{
		ID:        c.ID,
		Username:  c.Username,
		Email:     c.Email,
		CreatedAt: c.CreatedAt,
	}
}

func (c Claims) GetExpirationTime() (*jwt.NumericDate, error) {
	if c.Exp == 0 {
		return nil, nil
	}
	return jwt.NewNumericDate(c.ExpiresAt()), nil
}

func (c Claims) GetIssuedAt() (*jwt.NumericDate, error)  { return nil, nil }
func (c Claims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }
func (c Claims) GetIssuer() (string, error)              { return "", nil }
func (c Claims) GetSubject() (string, error)             { return c.ID, nil }
func (c Claims) GetAudience() (jwt.ClaimStrings, error)  { return nil, nil }
