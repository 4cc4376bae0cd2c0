package testutil

import (
	"database/sql"
	"testing"

	"github.com/alexanderramin/learnpath/internal/db"
	"github.com/stretchr/testify/require"
)

// NewTestDB returns a migrated in-memory progress database that is closed
// with the test.
func NewTestDB(t testing.TB) *sql.DB {
	t.Helper()
	conn, err := db.OpenDB(db.MemoryPath)
	require.NoError(t, err, "opening test database")
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func NewTestUoW(conn *sql.DB) db.UnitOfWork {
	return db.NewSQLiteUnitOfWork(conn)
}
