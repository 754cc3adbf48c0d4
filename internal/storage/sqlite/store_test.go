package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/lookalike/internal/storage"
	"github.com/scrypster/lookalike/internal/storage/sqlite"
	"github.com/scrypster/lookalike/internal/storage/storagetest"
	"github.com/scrypster/lookalike/pkg/types"
)

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := sqlite.NewStore(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore(t *testing.T) {
	storagetest.Run(t, newTestStore)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "lookalike.db")

	store, err := sqlite.NewStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, store.SaveUsers(ctx, []types.User{storagetest.NewUser("a1", "alice", "Akron")}))
	require.NoError(t, store.Close())

	reopened, err := sqlite.NewStore(path, nil)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	users, err := reopened.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].FirstName)
}

func TestStore_CloseTwiceSafe(t *testing.T) {
	store, err := sqlite.NewStore(":memory:", nil)
	require.NoError(t, err)
	require.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
