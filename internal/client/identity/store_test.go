package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/authsim/internal/client/store"
	"github.com/dmitrijs2005/authsim/internal/common"
)

func newSeeded(t *testing.T) (*Store, store.Store) {
	t.Helper()
	kv := store.NewMemory()
	s := NewStore(kv)
	seeded, err := s.Seed(context.Background())
	require.NoError(t, err)
	require.True(t, seeded)
	return s, kv
}

func TestSeed_WritesDemoAccounts(t *testing.T) {
	s, _ := newSeeded(t)

	users, err := s.List(context.Background())
	require.NoError(t, err)
	if diff := cmp.Diff(SeedUsers(), users); diff != "" {
		t.Fatalf("seeded users mismatch (-want +got):\n%s", diff)
	}

	admin, err := s.FindByEmail(context.Background(), "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, "admin", admin.Username)
	assert.Equal(t, "$2b$12$hashedpassword123", admin.PasswordDigest)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), admin.CreatedAt)
}

func TestSeed_IdsAreStable(t *testing.T) {
	a := SeedUsers()
	b := SeedUsers()
	assert.Equal(t, a[0].ID, b[0].ID)
	assert.NotEqual(t, a[0].ID, a[1].ID)
}

func TestSeed_IsIdempotent(t *testing.T) {
	s, kv := newSeeded(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, NewUser("newuser", "new@example.com", "d", time.Now())))
	before, err := kv.Get(ctx, store.KeyUsers)
	require.NoError(t, err)

	seeded, err := s.Seed(ctx)
	require.NoError(t, err)
	assert.False(t, seeded)

	after, err := kv.Get(ctx, store.KeyUsers)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSeed_KeepsExistingEmptyList(t *testing.T) {
	kv := store.NewMemory()
	require.NoError(t, kv.Set(context.Background(), store.KeyUsers, []byte("[]")))

	s := NewStore(kv)
	seeded, err := s.Seed(context.Background())
	require.NoError(t, err)
	assert.False(t, seeded)

	users, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestFind_NotFound(t *testing.T) {
	s, _ := newSeeded(t)
	ctx := context.Background()

	_, err := s.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = s.FindByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	// lookups are exact
	_, err = s.FindByEmail(ctx, "ADMIN@example.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestInsert_Conflicts(t *testing.T) {
	s, _ := newSeeded(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		user    User
		field   string
		message string
	}{
		{
			name:    "email taken",
			user:    NewUser("someoneelse", "admin@example.com", "d", time.Now()),
			field:   "email",
			message: "This email is already registered",
		},
		{
			name:    "username taken",
			user:    NewUser("admin", "fresh@example.com", "d", time.Now()),
			field:   "username",
			message: "This username is already registered",
		},
		{
			name:    "both taken reports email",
			user:    NewUser("testuser", "test@example.com", "d", time.Now()),
			field:   "email",
			message: "This email is already registered",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Insert(ctx, tt.user)
			var ce *ConflictError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.field, ce.Field)
			assert.Equal(t, tt.message, ce.Error())
			assert.ErrorIs(t, err, common.ErrAlreadyRegistered)
		})
	}

	users, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestInsert_ThenFind(t *testing.T) {
	s, _ := newSeeded(t)
	ctx := context.Background()

	u := NewUser("newuser", "new@example.com", "digest", time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC))
	require.NoError(t, s.Insert(ctx, u))

	byEmail, err := s.FindByEmail(ctx, "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, u, *byEmail)

	byName, err := s.FindByUsername(ctx, "newuser")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	assert.Equal(t, PublicUser{
		ID:        u.ID,
		Username:  "newuser",
		Email:     "new@example.com",
		CreatedAt: u.CreatedAt,
	}, byEmail.Public())
}

func TestInsert_IntoEmptyStore(t *testing.T) {
	s := NewStore(store.NewMemory())
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, NewUser("first", "first@example.com", "d", time.Now())))
	users, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestCorruptList_IsStorageError(t *testing.T) {
	kv := store.NewMemory()
	require.NoError(t, kv.Set(context.Background(), store.KeyUsers, []byte("{not json")))
	s := NewStore(kv)

	_, err := s.FindByEmail(context.Background(), "admin@example.com")
	assert.ErrorIs(t, err, common.ErrStorage)

	err = s.Insert(context.Background(), NewUser("x", "x@example.com", "d", time.Now()))
	assert.ErrorIs(t, err, common.ErrStorage)
}
