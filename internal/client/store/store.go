// Package store is the durable key-value area the session and identity
// layers persist into. Backends: SQLite (default, local file), Redis
// (process-external) and memory (tests, ephemeral runs).
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/authsim/internal/common"
)

// Well-known keys.
const (
	KeyAuthToken = "authToken"
	KeyUsers     = "mockUsers"
)

// UpdateFunc receives the current value (nil when absent) and returns the
// value to store. Returning a nil value deletes the key; returning an error
// aborts the update and leaves the stored value untouched.
type UpdateFunc func(current []byte) ([]byte, error)

// Store is a generic durable key-value store.
//
// Get returns (nil, nil) when the key is absent. Backend failures are
// wrapped so that errors.Is(err, common.ErrStorage) holds; errors returned
// by an UpdateFunc are passed through unchanged.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Update(ctx context.Context, key string, fn UpdateFunc) error
	Close() error
}

// Open selects a backend from dsn:
//
//	memory:                 in-process map
//	redis://host:6379/0     Redis (rediss:// for TLS)
//	sqlite:path/to/file.db  SQLite; a bare path is treated the same way
func Open(ctx context.Context, dsn string) (Store, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "memory:" || dsn == "memory":
		return NewMemory(), nil
	case strings.HasPrefix(dsn, "redis://"), strings.HasPrefix(dsn, "rediss://"):
		return OpenRedis(ctx, dsn)
	case strings.HasPrefix(dsn, "sqlite:"):
		return OpenSQLite(ctx, strings.TrimPrefix(dsn, "sqlite:"))
	case dsn == "":
		return nil, fmt.Errorf("empty store dsn")
	default:
		return OpenSQLite(ctx, dsn)
	}
}

func storageErr(op, key string, err error) error {
	return fmt.Errorf("failed to %s kv[%s]: %w: %w", op, key, common.ErrStorage, err)
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
