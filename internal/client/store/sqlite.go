package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/authsim/internal/dbx"
	"github.com/dmitrijs2005/authsim/internal/filex"
	"github.com/dmitrijs2005/authsim/internal/migrations"

	_ "modernc.org/sqlite"
)

// SQLite stores values in the kv table of a local SQLite database.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at dsn and applies migrations.
// For plain file paths the parent directory is created first.
func OpenSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if _, err := filex.EnsureParentDir(dsn); err != nil {
			return nil, fmt.Errorf("failed to prepare sqlite %q: %w", dsn, err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %q: %w", dsn, err)
	}
	// One writer at a time keeps read-modify-write updates serialised.
	db.SetMaxOpenConns(1)

	if err := dbx.Migrate(ctx, db, migrations.Migrations, "sqlite3"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewSQLite(db), nil
}

// NewSQLite wraps an already migrated database.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

func (r *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := get(ctx, r.db, key)
	if err != nil {
		return nil, storageErr("get", key, err)
	}
	return v, nil
}

func (r *SQLite) Set(ctx context.Context, key string, value []byte) error {
	if err := set(ctx, r.db, key, value); err != nil {
		return storageErr("set", key, err)
	}
	return nil
}

func (r *SQLite) Delete(ctx context.Context, key string) error {
	if err := del(ctx, r.db, key); err != nil {
		return storageErr("delete", key, err)
	}
	return nil
}

func (r *SQLite) Update(ctx context.Context, key string, fn UpdateFunc) error {
	var fnErr error

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		current, err := get(ctx, tx, key)
		if err != nil {
			return err
		}

		next, err := fn(current)
		if err != nil {
			fnErr = err
			return err
		}

		if next == nil {
			return del(ctx, tx, key)
		}
		return set(ctx, tx, key, next)
	})

	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return storageErr("update", key, err)
	}
	return nil
}

func (r *SQLite) Close() error {
	return r.db.Close()
}

func get(ctx context.Context, q dbx.DBTX, key string) ([]byte, error) {
	var value []byte
	err := q.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func set(ctx context.Context, q dbx.DBTX, key string, value []byte) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func del(ctx context.Context, q dbx.DBTX, key string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	return err
}
