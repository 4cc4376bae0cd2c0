package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/learnpath/internal/db"
	"github.com/alexanderramin/learnpath/internal/domain"
)

// SQLiteProgramProgressRepo implements ProgramProgressRepo using a SQLite database.
type SQLiteProgramProgressRepo struct {
	db db.DBTX
}

func NewSQLiteProgramProgressRepo(conn db.DBTX) *SQLiteProgramProgressRepo {
	return &SQLiteProgramProgressRepo{db: conn}
}

// MarkCompleted records program completion for userID. The first
// completed_at wins.
func (r *SQLiteProgramProgressRepo) MarkCompleted(ctx context.Context, userID string, completedAt time.Time) error {
	query := `INSERT INTO program_progress (user_id, all_courses_completed, completed_at)
		VALUES (?, 1, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			all_courses_completed = 1,
			completed_at          = COALESCE(program_progress.completed_at, excluded.completed_at)`
	if _, err := r.db.ExecContext(ctx, query, userID, formatTime(completedAt)); err != nil {
		return fmt.Errorf("marking program completed: %w", err)
	}
	return nil
}

func (r *SQLiteProgramProgressRepo) Get(ctx context.Context, userID string) (*domain.ProgramProgress, error) {
	query := `SELECT all_courses_completed, completed_at FROM program_progress WHERE user_id = ?`

	var (
		completed   int
		completedAt sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&completed, &completedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("program progress: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning program progress: %w", err)
	}
	return &domain.ProgramProgress{
		AllCoursesCompleted: intToBool(completed),
		CompletedAt:         parseNullableTime(completedAt, timeLayout),
	}, nil
}
