package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLiteMem(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(context.Background(), "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func backends(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": openSQLiteMem(t),
	}
}

func TestStore_SetGetDelete(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			v, err := s.Get(ctx, "absent")
			require.NoError(t, err)
			assert.Nil(t, v)

			require.NoError(t, s.Set(ctx, "k", []byte("old")))
			require.NoError(t, s.Set(ctx, "k", []byte("new")))

			v, err = s.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, []byte("new"), v)

			require.NoError(t, s.Delete(ctx, "k"))
			v, err = s.Get(ctx, "k")
			require.NoError(t, err)
			assert.Nil(t, v)

			// deleting twice is fine
			require.NoError(t, s.Delete(ctx, "k"))
		})
	}
}

func TestStore_Update(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			err := s.Update(ctx, "u", func(cur []byte) ([]byte, error) {
				assert.Nil(t, cur)
				return []byte("1"), nil
			})
			require.NoError(t, err)

			err = s.Update(ctx, "u", func(cur []byte) ([]byte, error) {
				assert.Equal(t, []byte("1"), cur)
				return []byte("2"), nil
			})
			require.NoError(t, err)

			v, err := s.Get(ctx, "u")
			require.NoError(t, err)
			assert.Equal(t, []byte("2"), v)

			// nil result deletes
			require.NoError(t, s.Update(ctx, "u", func([]byte) ([]byte, error) { return nil, nil }))
			v, err = s.Get(ctx, "u")
			require.NoError(t, err)
			assert.Nil(t, v)
		})
	}
}

func TestStore_UpdateFnErrorPassesThroughAndKeepsValue(t *testing.T) {
	sentinel := errors.New("rejected")

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Set(ctx, "k", []byte("keep")))

			err := s.Update(ctx, "k", func([]byte) ([]byte, error) { return nil, sentinel })
			require.ErrorIs(t, err, sentinel)
			assert.NotErrorIs(t, err, errStorage())

			v, err := s.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, []byte("keep"), v)
		})
	}
}

func TestStore_UpdateConcurrent(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			const n = 20

			var wg sync.WaitGroup
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					err := s.Update(ctx, "ctr", func(cur []byte) ([]byte, error) {
						c := 0
						if cur != nil {
							c, _ = strconv.Atoi(string(cur))
						}
						return []byte(strconv.Itoa(c + 1)), nil
					})
					assert.NoError(t, err)
				}()
			}
			wg.Wait()

			v, err := s.Get(ctx, "ctr")
			require.NoError(t, err)
			assert.Equal(t, strconv.Itoa(n), string(v))
		})
	}
}

func TestMemory_ReturnsCopies(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	in := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", in))
	in[0] = 'x'

	out, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), out)

	out[0] = 'y'
	again, _ := s.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), again)
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authsim.db")
	ctx := context.Background()

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, KeyAuthToken, []byte("tok")))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	v, err := s.Get(ctx, KeyAuthToken)
	require.NoError(t, err)
	assert.Equal(t, []byte("tok"), v)
}

func TestSQLite_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "nested", "authsim.db")

	s, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestOpen_SelectsBackend(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, "memory:")
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(ctx, "sqlite:"+filepath.Join(t.TempDir(), "a.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, s)
	require.NoError(t, s.Close())

	s, err = Open(ctx, filepath.Join(t.TempDir(), "b.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, "  ")
	require.Error(t, err)
}
