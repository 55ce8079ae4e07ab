package token

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Signer produces and checks the third token segment.
type Signer interface {
	Sign(signingString string, claims *Claims, issuedAt time.Time) (string, error)
	Verify(signingString, signature string) error
}

// PlaceholderSigner emits base64("signature_<id>_<issueMillis>"). Nothing
// about it can be verified, so Verify accepts any segment.
type PlaceholderSigner struct{}

func (PlaceholderSigner) Sign(_ string, claims *Claims, issuedAt time.Time) (string, error) {
	raw := fmt.Sprintf("signature_%s_%d", claims.ID, issuedAt.UnixMilli())
	return base64.RawURLEncoding.EncodeToString([]byte(raw)), nil
}

func (PlaceholderSigner) Verify(string, string) error { return nil }

var ErrSignatureMismatch = errors.New("signature mismatch")

// HMACSigner signs with HS256 under a shared key.
type HMACSigner struct {
	key []byte
}

func NewHMACSigner(key []byte) *HMACSigner {
	return &HMACSigner{key: append([]byte(nil), key...)}
}

func (s *HMACSigner) Sign(signingString string, _ *Claims, _ time.Time) (string, error) {
	sig, err := jwt.SigningMethodHS256.Sign(signingString, s.key)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(sig), nil
}

func (s *HMACSigner) Verify(signingString, signature string) error {
	sig, err := base64.RawURLEncoding.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureMismatch, err)
	}
	if err := jwt.SigningMethodHS256.Verify(signingString, sig, s.key); err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureMismatch, err)
	}
	return nil
}
