package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scrypster/lookalike/internal/storage"
	"github.com/scrypster/lookalike/internal/storage/postgres"
	"github.com/scrypster/lookalike/internal/storage/storagetest"
)

// postgresTestDSN returns the DSN for the test database.
// If LOOKALIKE_TEST_POSTGRES_DSN is not set, tests are skipped.
func postgresTestDSN(t *testing.T) string {
	t.Helper()

	dsn := os.Getenv("LOOKALIKE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("LOOKALIKE_TEST_POSTGRES_DSN not set; skipping PostgreSQL integration tests")
	}
	return dsn
}

// newTestStore connects to the test database and empties every table.
func newTestStore(t *testing.T) storage.Store {
	t.Helper()

	store, err := postgres.NewStore(context.Background(), postgresTestDSN(t))
	require.NoError(t, err, "NewStore should succeed")
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.TruncateForTest(context.Background()))
	return store
}

func TestStore(t *testing.T) {
	storagetest.Run(t, newTestStore)
}
