package db

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMigrate_UpgradePath_AddsIsCompleted simulates a database created
// before course_progress carried is_completed. Existing rows must survive,
// gain the column, and have it backfilled from status.
func TestMigrate_UpgradePath_AddsIsCompleted(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE course_progress (
		user_id           TEXT NOT NULL,
		course_id         TEXT NOT NULL,
		completed_modules TEXT NOT NULL DEFAULT '[]',
		cfu_answers       TEXT NOT NULL DEFAULT '{}',
		status            TEXT NOT NULL DEFAULT 'not_started'
		                  CHECK(status IN ('not_started','in_progress','completed','credited')),
		updated_at        TEXT NOT NULL,
		PRIMARY KEY (user_id, course_id)
	)`)
	require.NoError(t, err)

	rows := []struct{ course, status string }{
		{"c1", "completed"},
		{"c2", "credited"},
		{"c3", "in_progress"},
	}
	for _, r := range rows {
		_, err = db.Exec(`INSERT INTO course_progress (user_id, course_id, status, updated_at)
			VALUES ('u1', ?, ?, '2025-06-01T00:00:00Z')`, r.course, r.status)
		require.NoError(t, err)
	}

	require.NoError(t, Migrate(db))

	want := map[string]int{"c1": 1, "c2": 1, "c3": 0}
	for course, expected := range want {
		var isCompleted int
		err = db.QueryRow(`SELECT is_completed FROM course_progress WHERE user_id = 'u1' AND course_id = ?`, course).Scan(&isCompleted)
		require.NoError(t, err)
		assert.Equal(t, expected, isCompleted, course)
	}

	// Re-running Migrate on an already-migrated DB should succeed.
	require.NoError(t, Migrate(db))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM course_progress`).Scan(&count))
	assert.Equal(t, 3, count)
}
