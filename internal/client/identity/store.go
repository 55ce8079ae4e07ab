package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/authsim/internal/client/store"
	"github.com/dmitrijs2005/authsim/internal/common"
)

// seedNamespace derives stable ids for the demo accounts.
var seedNamespace = uuid.MustParse("6f1c7a52-4f8e-4d0a-9a55-0c3f2b9d1e01")

var errSeeded = errors.New("already seeded")

// SeedUsers returns the fixed demo accounts written by Seed.
func SeedUsers() []User {
	return []User{
		{
			ID:             uuid.NewSHA1(seedNamespace, []byte("admin@example.com")).String(),
			Username:       "admin",
			Email:          "admin@example.com",
			PasswordDigest: "$2b$12$hashedpassword123",
			CreatedAt:      time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:             uuid.NewSHA1(seedNamespace, []byte("test@example.com")).String(),
			Username:       "testuser",
			Email:          "test@example.com",
			PasswordDigest: "$2b$12$hashedtest123",
			CreatedAt:      time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		},
	}
}

// Store looks users up by email or username and inserts new ones.
type Store struct {
	kv store.Store
}

// NewStore returns an identity Store persisting into kv.
func NewStore(kv store.Store) *Store {
	return &Store{kv: kv}
}

// Seed writes the demo accounts when no user list exists yet. An existing
// list, even an empty one, is left untouched.
func (s *Store) Seed(ctx context.Context) (bool, error) {
	err := s.kv.Update(ctx, store.KeyUsers, func(current []byte) ([]byte, error) {
		if current != nil {
			return nil, errSeeded
		}
		return encodeUsers(SeedUsers())
	})
	if errors.Is(err, errSeeded) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// FindByEmail returns the user with exactly this email or common.ErrorNotFound.
func (s *Store) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.find(ctx, func(u *User) bool { return u.Email == email })
}

// FindByUsername returns the user with exactly this username or common.ErrorNotFound.
func (s *Store) FindByUsername(ctx context.Context, username string) (*User, error) {
	return s.find(ctx, func(u *User) bool { return u.Username == username })
}

// List returns every stored user in insertion order.
func (s *Store) List(ctx context.Context) ([]User, error) {
	raw, err := s.kv.Get(ctx, store.KeyUsers)
	if err != nil {
		return nil, err
	}
	return decodeUsers(raw)
}

// Insert appends u when neither its email nor its username is taken.
// A collision yields *ConflictError; email is checked first.
func (s *Store) Insert(ctx context.Context, u User) error {
	return s.kv.Update(ctx, store.KeyUsers, func(current []byte) ([]byte, error) {
		users, err := decodeUsers(current)
		if err != nil {
			return nil, err
		}

		for i := range users {
			if users[i].Email == u.Email {
				return nil, &ConflictError{Field: "email"}
			}
		}
		for i := range users {
			if users[i].Username == u.Username {
				return nil, &ConflictError{Field: "username"}
			}
		}

		return encodeUsers(append(users, u))
	})
}

func (s *Store) find(ctx context.Context, match func(*User) bool) (*User, error) {
	users, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if match(&users[i]) {
			u := users[i]
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func decodeUsers(raw []byte) ([]User, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var users []User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("corrupt %s list: %w: %w", store.KeyUsers, common.ErrStorage, err)
	}
	return users, nil
}

func encodeUsers(users []User) ([]byte, error) {
	if users == nil {
		users = []User{}
	}
	b, err := json.Marshal(users)
	if err != nil {
		return nil, fmt.Errorf("encode %s list: %w", store.KeyUsers, err)
	}
	return b, nil
}
