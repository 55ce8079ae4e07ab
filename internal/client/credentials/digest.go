// Package credentials turns plaintext passwords into stored digests and
// checks a plaintext against a digest.
package credentials

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Digester hashes passwords. The same Digester must be used to verify the
// digests it produced.
type Digester interface {
	Digest(plaintext string) (string, error)
	Matches(plaintext, digest string) bool
}

// Digester names accepted by NewDigester.
const (
	HasherLegacy = "legacy"
	HasherArgon2 = "argon2"
	HasherBcrypt = "bcrypt"
)

var ErrUnknownHasher = errors.New("unknown hasher")

// NewDigester returns the Digester registered under name. An empty name
// selects the legacy one.
func NewDigester(name string) (Digester, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", HasherLegacy:
		return Legacy{}, nil
	case HasherArgon2, "argon2id":
		return Argon2{}, nil
	case HasherBcrypt:
		return Bcrypt{Cost: bcrypt.DefaultCost}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownHasher, name)
	}
}

// Legacy reproduces the demo transform "$2b$12$" + base64(plaintext+"salt")
// cut to 22 characters. It is deterministic and keyless, so it offers no
// protection at all; it exists so accounts created by older builds keep
// working.
type Legacy struct{}

const legacyPrefix = "$2b$12$"

func (Legacy) Digest(plaintext string) (string, error) {
	enc := base64.StdEncoding.EncodeToString([]byte(plaintext + "salt"))
	if len(enc) > 22 {
		enc = enc[:22]
	}
	return legacyPrefix + enc, nil
}

func (l Legacy) Matches(plaintext, digest string) bool {
	want, _ := l.Digest(plaintext)
	return subtle.ConstantTimeCompare([]byte(want), []byte(digest)) == 1
}

// Argon2 stores salted argon2id keys in the PHC string format:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>
type Argon2 struct{}

const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16

	// Upper bounds accepted when reading a stored digest.
	argonMaxMemory = 256 * 1024
	argonMaxTime   = 16
)

func deriveKey(password, salt []byte, t, m uint32, p uint8, keyLen uint32) []byte {
	return argon2.IDKey(password, salt, t, m, p, keyLen)
}

func (Argon2) Digest(plaintext string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := deriveKey([]byte(plaintext), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (Argon2) Matches(plaintext, digest string) bool {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var m, t uint32
	var p uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil {
		return false
	}
	if !argonParamsValid(m, t, p) {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return false
	}

	candidate := deriveKey([]byte(plaintext), salt, t, m, p, uint32(len(key)))
	return subtle.ConstantTimeCompare(candidate, key) == 1
}

// argonParamsValid rejects parameters argon2.IDKey would panic on or that
// would make a single check allocate unbounded memory.
func argonParamsValid(m, t uint32, p uint8) bool {
	switch {
	case t < 1 || t > argonMaxTime:
		return false
	case p < 1:
		return false
	case m < 8*uint32(p) || m > argonMaxMemory:
		return false
	}
	return true
}

// Bcrypt wraps golang.org/x/crypto/bcrypt.
type Bcrypt struct {
	Cost int
}

func (b Bcrypt) Digest(plaintext string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (Bcrypt) Matches(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
