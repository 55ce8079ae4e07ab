package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/authsim/internal/client/identity"
	"github.com/dmitrijs2005/authsim/internal/client/store"
	"github.com/dmitrijs2005/authsim/internal/client/token"
	"github.com/dmitrijs2005/authsim/internal/common"
	"github.com/dmitrijs2005/authsim/internal/timex"
)

var (
	t0    = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	admin = identity.SeedUsers()[0].Public()
)

type fixture struct {
	kv       store.Store
	clock    *timex.ManualClock
	codec    *token.Codec
	m        *Manager
	outcomes []RestoreOutcome
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{kv: store.NewMemory(), clock: timex.NewManualClock(t0)}
	f.codec = token.NewCodec(token.WithClock(f.clock))
	f.m = f.newManager()
	return f
}

// newManager simulates a restart against the same storage.
func (f *fixture) newManager() *Manager {
	return NewManager(f.kv, f.codec,
		WithClock(f.clock),
		WithRestoreHook(func(o RestoreOutcome) { f.outcomes = append(f.outcomes, o) }),
	)
}

func (f *fixture) persisted(t *testing.T) []byte {
	t.Helper()
	v, err := f.kv.Get(context.Background(), store.KeyAuthToken)
	require.NoError(t, err)
	return v
}

func TestRestore_NothingPersisted(t *testing.T) {
	f := newFixture(t)

	s, err := f.m.Restore(context.Background())
	require.NoError(t, err)
	assert.Nil(t, s)
	assert.False(t, f.m.Authenticated())
	assert.Equal(t, []RestoreOutcome{RestoreAbsent}, f.outcomes)
}

func TestStart_PersistsAndSurvivesRestart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	started, err := f.m.Start(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, admin, started.User)
	assert.Equal(t, t0.Add(token.DefaultTTL), started.ExpiresAt)
	assert.Equal(t, []byte(started.Token), f.persisted(t))
	assert.True(t, f.m.Authenticated())

	f.clock.Advance(23 * time.Hour)

	restored, err := f.newManager().Restore(ctx)
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, started.Token, restored.Token)
	assert.Equal(t, admin, restored.User)
	assert.Equal(t, []RestoreOutcome{RestoreRestored}, f.outcomes)
}

// A token whose exp is one millisecond in the past is discarded on startup.
func TestRestore_ExpiredTokenIsDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.m.Start(ctx, admin)
	require.NoError(t, err)

	f.clock.Set(t0.Add(token.DefaultTTL + time.Millisecond))

	m := f.newManager()
	s, err := m.Restore(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)
	assert.Nil(t, m.Current())
	assert.Nil(t, f.persisted(t), "expired token must be removed")
	assert.Equal(t, []RestoreOutcome{RestoreExpired}, f.outcomes)
}

func TestRestore_ExactlyAtExpiryIsNotLive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.m.Start(ctx, admin)
	require.NoError(t, err)

	f.clock.Set(t0.Add(token.DefaultTTL))

	s, err := f.newManager().Restore(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestRestore_GarbageTokenIsDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.kv.Set(ctx, store.KeyAuthToken, []byte("not-a-token")))

	s, err := f.m.Restore(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)
	assert.Nil(t, f.persisted(t))
	assert.Equal(t, []RestoreOutcome{RestoreInvalid}, f.outcomes)
}

func TestRestore_MissingCreatedAtFallsBackToNow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := admin
	u.CreatedAt = time.Time{}
	_, err := f.m.Start(ctx, u)
	require.NoError(t, err)

	f.clock.Advance(time.Hour)

	s, err := f.newManager().Restore(ctx)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, t0.Add(time.Hour), s.User.CreatedAt)
}

func TestCurrent_ExpiresWithClock(t *testing.T) {
	f := newFixture(t)

	_, err := f.m.Start(context.Background(), admin)
	require.NoError(t, err)

	f.clock.Set(t0.Add(token.DefaultTTL - time.Millisecond))
	assert.True(t, f.m.Authenticated())

	f.clock.Set(t0.Add(token.DefaultTTL))
	assert.False(t, f.m.Authenticated())
	assert.Nil(t, f.m.Current())
}

func TestCurrent_ReturnsCopy(t *testing.T) {
	f := newFixture(t)

	_, err := f.m.Start(context.Background(), admin)
	require.NoError(t, err)

	c := f.m.Current()
	c.User.Username = "mallory"
	assert.Equal(t, "admin", f.m.Current().User.Username)
}

func TestStart_LastWriterWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.m.Start(ctx, admin)
	require.NoError(t, err)

	other := identity.SeedUsers()[1].Public()
	second, err := f.m.Start(ctx, other)
	require.NoError(t, err)

	assert.Equal(t, other, f.m.Current().User)
	assert.Equal(t, []byte(second.Token), f.persisted(t))
}

func TestEnd_ClearsSlotAndStorage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.m.Start(ctx, admin)
	require.NoError(t, err)

	require.NoError(t, f.m.End(ctx))
	assert.False(t, f.m.Authenticated())
	assert.Nil(t, f.persisted(t))

	// ending twice is harmless
	require.NoError(t, f.m.End(ctx))
}

type brokenStore struct {
	store.Store
}

var errDisk = fmt.Errorf("failed to get kv[authToken]: %w: disk gone", common.ErrStorage)

func (brokenStore) Get(context.Context, string) ([]byte, error) { return nil, errDisk }
func (brokenStore) Set(context.Context, string, []byte) error   { return errDisk }
func (brokenStore) Delete(context.Context, string) error        { return errDisk }

func TestStorageErrors(t *testing.T) {
	clock := timex.NewManualClock(t0)
	m := NewManager(brokenStore{}, token.NewCodec(token.WithClock(clock)), WithClock(clock))
	ctx := context.Background()

	_, err := m.Restore(ctx)
	assert.ErrorIs(t, err, common.ErrStorage)

	_, err = m.Start(ctx, admin)
	assert.ErrorIs(t, err, common.ErrStorage)
	assert.False(t, m.Authenticated(), "failed start must not set a session")

	err = m.End(ctx)
	assert.True(t, errors.Is(err, common.ErrStorage))
}
