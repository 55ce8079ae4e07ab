// Package token encodes session claims into a compact three-segment string
// (header.payload.signature, each base64url) and decodes it back.
//
// The default signature is a placeholder and proves nothing; configure an
// HMACSigner when tokens must not be forgeable.
package token

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/authsim/internal/client/identity"
	"github.com/dmitrijs2005/authsim/internal/common"
	"github.com/dmitrijs2005/authsim/internal/timex"
)

// DefaultTTL is the lifetime of a freshly issued token.
const DefaultTTL = 24 * time.Hour

// ErrInvalidToken is returned by Decode for anything that is not a well
// formed token carrying an expiry.
var ErrInvalidToken = common.ErrInvalidToken

type Codec struct {
	ttl    time.Duration
	clock  timex.Clock
	signer Signer
	parser *jwt.Parser
}

type Option func(*Codec)

func WithTTL(ttl time.Duration) Option {
	return func(c *Codec) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithClock(clock timex.Clock) Option {
	return func(c *Codec) {
		if clock != nil {
			c.clock = clock
		}
	}
}

func WithSigner(s Signer) Option {
	return func(c *Codec) {
		if s != nil {
			c.signer = s
		}
	}
}

func NewCodec(opts ...Option) *Codec {
	c := &Codec{
		ttl:    DefaultTTL,
		clock:  timex.SystemClock{},
		signer: PlaceholderSigner{},
		// expiry is checked by IsLive with millisecond precision
		parser: jwt.NewParser(jwt.WithoutClaimsValidation()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the configured token lifetime.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Encode issues a token for u expiring TTL from now.
func (c *Codec) Encode(u identity.PublicUser) (string, *Claims, error) {
	now := c.clock.Now()
	claims := &Claims{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
		Exp:       now.Add(c.ttl).UnixMilli(),
	}

	signingString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SigningString()
	if err != nil {
		return "", nil, fmt.Errorf("encode token: %w", err)
	}
	sig, err := c.signer.Sign(signingString, claims, now)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signingString + "." + sig, claims, nil
}

// Decode parses raw back into claims. It does not check expiry; use IsLive.
func (c *Codec) Decode(raw string) (*Claims, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: %d segments", ErrInvalidToken, len(parts))
	}
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%w: empty segment", ErrInvalidToken)
		}
	}

	claims := &Claims{}
	if _, _, err := c.parser.ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Exp == 0 {
		return nil, fmt.Errorf("%w: missing exp", ErrInvalidToken)
	}
	if err := c.signer.Verify(parts[0]+"."+parts[1], parts[2]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// IsLive reports whether claims expire strictly after now.
func IsLive(claims *Claims, now time.Time) bool {
	return claims != nil && claims.Exp > now.UnixMilli()
}
