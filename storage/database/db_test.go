package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutil "github.com/trezcool/cohortgen/tests"
)

func TestMigrate_sqlite(t *testing.T) {
	db, err := Open(testutil.Config(10, 1))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db), "migrating twice is a no-op")

	for _, table := range []string{"cohort_run", "cohort_group", "cohort_record"} {
		var count int
		err := db.Get(&count, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table)
		require.NoError(t, err)
		assert.Equal(t, 1, count, table)
	}
}

func TestCreateIfNotExist_sqliteIsNoop(t *testing.T) {
	assert.NoError(t, CreateIfNotExist(testutil.Config(10, 1)))
}

func TestDialect(t *testing.T) {
	assert.Equal(t, "sqlite3", Dialect(EngineSQLite))
	assert.Equal(t, "postgres", Dialect(EnginePostgres))
}
