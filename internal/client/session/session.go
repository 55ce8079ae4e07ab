// Package session owns the single current session slot and its persisted
// token.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/authsim/internal/client/identity"
	"github.com/dmitrijs2005/authsim/internal/client/store"
	"github.com/dmitrijs2005/authsim/internal/client/token"
	"github.com/dmitrijs2005/authsim/internal/logging"
	"github.com/dmitrijs2005/authsim/internal/timex"
)

// Session is an authenticated user plus the token that proves it.
type Session struct {
	User      identity.PublicUser
	Token     string
	ExpiresAt time.Time
}

// RestoreOutcome classifies what Restore found in storage.
type RestoreOutcome string

const (
	RestoreRestored RestoreOutcome = "restored"
	RestoreAbsent   RestoreOutcome = "absent"
	RestoreInvalid  RestoreOutcome = "invalid"
	RestoreExpired  RestoreOutcome = "expired"
	RestoreFailed   RestoreOutcome = "error"
)

// Manager keeps at most one session. Writers win in call order.
type Manager struct {
	mu      sync.Mutex
	current *Session

	kv        store.Store
	codec     *token.Codec
	clock     timex.Clock
	log       logging.Logger
	onRestore func(RestoreOutcome)
}

type Option func(*Manager)

func WithClock(c timex.Clock) Option {
	return func(m *Manager) {
		if c != nil {
			m.clock = c
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithRestoreHook registers fn to be called with every Restore outcome.
func WithRestoreHook(fn func(RestoreOutcome)) Option {
	return func(m *Manager) {
		m.onRestore = fn
	}
}

func NewManager(kv store.Store, codec *token.Codec, opts ...Option) *Manager {
	m := &Manager{
		kv:        kv,
		codec:     codec,
		clock:     timex.SystemClock{},
		log:       logging.Nop(),
		onRestore: func(RestoreOutcome) {},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Restore loads the persisted token. A missing token yields (nil, nil).
// An undecodable or expired token is deleted from storage and also yields
// (nil, nil). Only storage failures are returned as errors.
func (m *Manager) Restore(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = nil

	raw, err := m.kv.Get(ctx, store.KeyAuthToken)
	if err != nil {
		m.onRestore(RestoreFailed)
		return nil, err
	}
	if raw == nil {
		m.onRestore(RestoreAbsent)
		return nil, nil
	}

	now := m.clock.Now()

	claims, err := m.codec.Decode(string(raw))
	if err != nil || !token.IsLive(claims, now) {
		outcome := RestoreExpired
		if err != nil {
			outcome = RestoreInvalid
		}
		m.log.Info(ctx, "discarding persisted session", "reason", string(outcome))

		if err := m.kv.Delete(ctx, store.KeyAuthToken); err != nil {
			m.onRestore(RestoreFailed)
			return nil, err
		}
		m.onRestore(outcome)
		return nil, nil
	}

	user := claims.User()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}

	m.current = &Session{
		User:      user,
		Token:     string(raw),
		ExpiresAt: claims.ExpiresAt(),
	}
	m.log.Info(ctx, "session restored", "user_id", user.ID, "expires_at", m.current.ExpiresAt)
	m.onRestore(RestoreRestored)

	return m.copyCurrent(), nil
}

// Start issues a token for u, persists it over any previous one and makes
// it the current session.
func (m *Manager) Start(ctx context.Context, u identity.PublicUser) (*Session, error) {
	raw, claims, err := m.codec.Encode(u)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.kv.Set(ctx, store.KeyAuthToken, []byte(raw)); err != nil {
		return nil, err
	}

	m.current = &Session{
		User:      u,
		Token:     raw,
		ExpiresAt: claims.ExpiresAt(),
	}
	m.log.Info(ctx, "session started", "user_id", u.ID, "expires_at", m.current.ExpiresAt)

	return m.copyCurrent(), nil
}

// End forgets the current session and deletes the persisted token. The
// in-memory slot is cleared even if the delete fails.
func (m *Manager) End(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.log.Info(ctx, "session ended", "user_id", m.current.User.ID)
	}
	m.current = nil

	return m.kv.Delete(ctx, store.KeyAuthToken)
}

// Current returns a copy of the live session, or nil.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || !m.current.ExpiresAt.After(m.clock.Now()) {
		return nil
	}
	return m.copyCurrent()
}

// Authenticated reports whether a live session exists right now.
func (m *Manager) Authenticated() bool {
	return m.Current() != nil
}

func (m *Manager) copyCurrent() *Session {
	s := *m.current
	return &s
}
