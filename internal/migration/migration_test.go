package migration_test

import (
	"testing"

	"github.com/astrosynth/atlas/internal/migration"
	"github.com/astrosynth/atlas/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The migration driver must share the connection the rest of the service
// opens through the pure-Go sqlite dialect. Importing both packages into one
// binary is part of the test: a second database/sql registration under the
// "sqlite" name panics before any test body runs.
func TestRunAppliesSchemaOverSharedConnection(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)

	require.NoError(t, migration.Run(sqlDB, "sqlite"))

	for _, table := range []string{"planets", "cache_metadata"} {
		var count int64
		err := conn.Raw(
			"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&count).Error
		require.NoError(t, err)
		assert.Equal(t, int64(1), count, "table %s must exist after migration", table)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)

	require.NoError(t, migration.Run(sqlDB, "sqlite"))
	require.NoError(t, migration.Run(sqlDB, "sqlite"))
}

func TestRunRejectsUnknownDatabaseType(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)

	assert.Error(t, migration.Run(sqlDB, "oracle"))
}
