package database

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMigrator_Validation(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("rejects empty migrations directory", func(t *testing.T) {
		migrator, err := NewMigrator(nil, "", logger)
		assert.Nil(t, migrator)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "migrations directory is required")
	})

	t.Run("rejects missing migrations directory", func(t *testing.T) {
		migrator, err := NewMigrator(nil, "/nonexistent/migrations", logger)
		assert.Nil(t, migrator)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "migrations directory")
	})

	// The directory is checked before any pool access, so a nil
	// database only surfaces once the directory is valid.
	t.Run("rejects nil database", func(t *testing.T) {
		migrator, err := NewMigrator(nil, t.TempDir(), logger)
		assert.Nil(t, migrator)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database pool is required")
	})

	t.Run("rejects database without a pool", func(t *testing.T) {
		migrator, err := NewMigrator(&DB{}, t.TempDir(), logger)
		assert.Nil(t, migrator)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database pool is required")
	})
}

func TestMigrator_Lifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	if db == nil {
		t.Skip("skipping: cannot connect to database")
	}
	defer db.Close()

	logger := zerolog.Nop()

	migrator, err := NewMigrator(db, "../../migrations", logger)
	require.NoError(t, err)

	t.Run("up is idempotent", func(t *testing.T) {
		require.NoError(t, migrator.Up())
		// A second run finds nothing to apply and still succeeds.
		require.NoError(t, migrator.Up())
	})

	t.Run("version reports a clean schema", func(t *testing.T) {
		version, dirty, err := migrator.Version()
		require.NoError(t, err)
		assert.False(t, dirty)
		assert.Greater(t, version, uint(0))
	})

	t.Run("stepping past the newest migration is a no-op", func(t *testing.T) {
		assert.NoError(t, migrator.Steps(1))
	})

	t.Run("close returns the handle", func(t *testing.T) {
		assert.NoError(t, migrator.Close())
	})
}
