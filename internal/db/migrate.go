package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	if err := migrateBackfillIsCompleted(db); err != nil {
		return fmt.Errorf("backfilling is_completed: %w", err)
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS course_progress (
		user_id           TEXT NOT NULL,
		course_id         TEXT NOT NULL,
		completed_modules TEXT NOT NULL DEFAULT '[]',
		cfu_answers       TEXT NOT NULL DEFAULT '{}',
		status            TEXT NOT NULL DEFAULT 'not_started'
		                  CHECK(status IN ('not_started','in_progress','completed','credited')),
		updated_at        TEXT NOT NULL,
		PRIMARY KEY (user_id, course_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_course_progress_status ON course_progress(user_id, status)`,

	`CREATE TABLE IF NOT EXISTS module_progress (
		user_id     TEXT NOT NULL,
		module_id   TEXT NOT NULL,
		mastered    INTEGER NOT NULL DEFAULT 0,
		mastered_at TEXT,
		PRIMARY KEY (user_id, module_id)
	)`,

	`CREATE TABLE IF NOT EXISTS bypass_attempts (
		user_id      TEXT NOT NULL,
		tier         INTEGER NOT NULL CHECK(tier >= 1),
		attempted    INTEGER NOT NULL DEFAULT 1,
		attempted_at TEXT NOT NULL,
		PRIMARY KEY (user_id, tier)
	)`,

	`CREATE TABLE IF NOT EXISTS program_progress (
		user_id               TEXT PRIMARY KEY,
		all_courses_completed INTEGER NOT NULL DEFAULT 0,
		completed_at          TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS certificates (
		id              TEXT PRIMARY KEY,
		user_id         TEXT NOT NULL UNIQUE,
		recipient_name  TEXT NOT NULL,
		recipient_email TEXT NOT NULL DEFAULT '',
		issued_at       TEXT NOT NULL
	)`,

	// Derived completion flag kept for readers that predate status.
	`ALTER TABLE course_progress ADD COLUMN is_completed INTEGER NOT NULL DEFAULT 0`,
}

// migrateBackfillIsCompleted sets is_completed on rows written before the
// column existed. Status is authoritative.
func migrateBackfillIsCompleted(db *sql.DB) error {
	_, err := db.Exec(`UPDATE course_progress SET is_completed = 1
		WHERE status IN ('completed','credited') AND is_completed = 0`)
	return err
}
