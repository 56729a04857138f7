package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"advpal/internal/store"
	"advpal/internal/store/storetest"
)

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return openTestStore(t, filepath.Join(t.TempDir(), "stories.db"))
	})
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stories.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, "general", func([]byte) ([]byte, bool, error) {
		return []byte(`{"version":1}`), true, nil
	}))
	require.NoError(t, s.Close())

	reopened := openTestStore(t, path)
	blob, err := reopened.Load(ctx, "general")
	require.NoError(t, err)
	assert.Equal(t, `{"version":1}`, string(blob))
}

func TestOpen_CreatesDirectory(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "nested", "dir", "stories.db"))

	_, err := s.Load(context.Background(), "general")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestClose_Nil(t *testing.T) {
	var s *Store
	assert.NoError(t, s.Close())
}
