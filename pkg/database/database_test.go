package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLiteMemory(t *testing.T) {
	t.Parallel()

	db, err := Open(t.Context(), Options{Driver: DriverSQLite, DSN: ":memory:", MaxOpenConns: 10})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.Equal(t, 1, db.Stats().MaxOpenConnections)

	var one int
	require.NoError(t, db.GetContext(t.Context(), &one, "SELECT 1"))
	assert.Equal(t, 1, one)
}

func TestOpen_SQLiteFile(t *testing.T) {
	t.Parallel()

	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_pragma=busy_timeout(5000)"
	db, err := Open(t.Context(), Options{Driver: DriverSQLite, DSN: dsn, MaxOpenConns: 4})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.Equal(t, 4, db.Stats().MaxOpenConnections)
}

func TestOpen_UnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(t.Context(), Options{Driver: "postgres", DSN: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
}

func TestIsMemorySQLite(t *testing.T) {
	t.Parallel()

	assert.True(t, IsMemorySQLite(DriverSQLite, ":memory:"))
	assert.True(t, IsMemorySQLite(DriverSQLite, "file::memory:?cache=shared"))
	assert.False(t, IsMemorySQLite(DriverSQLite, "file:notify.db"))
	assert.False(t, IsMemorySQLite(DriverMySQL, ":memory:"))
}
