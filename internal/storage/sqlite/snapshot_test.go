package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/lookalike/internal/storage/sqlite"
	"github.com/scrypster/lookalike/internal/storage/storagetest"
	"github.com/scrypster/lookalike/pkg/types"
)

func TestSnapshot(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := sqlite.NewStore(filepath.Join(dir, "lookalike.db"), nil)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	require.NoError(t, store.SaveUsers(ctx, []types.User{
		storagetest.NewUser("a1", "alice", "Akron"),
		storagetest.NewUser("b2", "bob", "Berea"),
	}))

	dest := filepath.Join(dir, "snapshots", "lookalike-1.db")
	require.NoError(t, store.Snapshot(ctx, dest))

	copied, err := sqlite.NewStore(dest, nil)
	require.NoError(t, err)
	defer func() { _ = copied.Close() }()

	users, err := copied.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestSnapshot_RefusesExistingTarget(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := sqlite.NewStore(filepath.Join(dir, "lookalike.db"), nil)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	dest := filepath.Join(dir, "snap.db")
	require.NoError(t, store.Snapshot(ctx, dest))
	assert.Error(t, store.Snapshot(ctx, dest))
}
