package kv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()

	file, err := NewFile(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	lite, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "kv.sqlite"))
	require.NoError(t, err)

	stores := map[string]Store{
		BackendMemory: NewMemory(),
		BackendFile:   file,
		BackendSQLite: lite,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

func TestStore_GetSet(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.Get(ctx, "todos-v1")
			require.NoError(t, err)
			assert.False(t, ok, "absent key must report ok=false")

			require.NoError(t, s.Set(ctx, "todos-v1", `[{"id":"1"}]`))
			v, ok, err := s.Get(ctx, "todos-v1")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `[{"id":"1"}]`, v)

			require.NoError(t, s.Set(ctx, "todos-v1", `[]`))
			v, _, err = s.Get(ctx, "todos-v1")
			require.NoError(t, err)
			assert.Equal(t, `[]`, v)
		})
	}
}

func TestStore_InvalidKey(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"", "  ", "a/b", `a\b`, "..", "."} {
				err := s.Set(ctx, key, "x")
				assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
				_, _, err = s.Get(ctx, key)
				assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
			}
		})
	}
}

func TestStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, s.Set(ctx, "k", "v"))
		})
	}
}

func TestFile_WritesReadableJSONFile(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFile(dir)
	require.NoError(t, err)

	require.NoError(t, f.Set(context.Background(), "todos-v1", `[{"id":"1","title":"x","completed":false}]`))

	b, err := os.ReadFile(filepath.Join(dir, "todos-v1.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"1","title":"x","completed":false}]`, string(b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "tada.sqlite")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "todos-v1", "payload"))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	v, ok, err := s.Get(ctx, "todos-v1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "payload", v)
}

func TestMemory_Closed(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Close())
	assert.ErrorIs(t, m.Set(context.Background(), "k", "v"), ErrClosed)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, "memory", "")
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(ctx, "FILE", t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &File{}, s)

	s, err = Open(ctx, "sqlite", filepath.Join(t.TempDir(), "db.sqlite"))
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, "redis", "")
	assert.ErrorIs(t, err, ErrUnknownBackend)
}
