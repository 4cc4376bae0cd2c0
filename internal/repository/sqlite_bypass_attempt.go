package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/learnpath/internal/db"
	"github.com/alexanderramin/learnpath/internal/domain"
)

// SQLiteBypassAttemptRepo implements BypassAttemptRepo using a SQLite database.
type SQLiteBypassAttemptRepo struct {
	db db.DBTX
}

func NewSQLiteBypassAttemptRepo(conn db.DBTX) *SQLiteBypassAttemptRepo {
	return &SQLiteBypassAttemptRepo{db: conn}
}

// Record marks tier attempted for userID. Repeat calls keep the first
// attempted_at.
func (r *SQLiteBypassAttemptRepo) Record(ctx context.Context, userID string, tier int, at time.Time) error {
	query := `INSERT INTO bypass_attempts (user_id, tier, attempted, attempted_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT (user_id, tier) DO UPDATE SET attempted = 1`
	if _, err := r.db.ExecContext(ctx, query, userID, tier, formatTime(at)); err != nil {
		return fmt.Errorf("recording bypass attempt: %w", err)
	}
	return nil
}

func (r *SQLiteBypassAttemptRepo) ListByUser(ctx context.Context, userID string) ([]domain.BypassAttempt, error) {
	query := `SELECT tier, attempted FROM bypass_attempts WHERE user_id = ? ORDER BY tier`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing bypass attempts: %w", err)
	}
	defer rows.Close()

	var out []domain.BypassAttempt
	for rows.Next() {
		var a domain.BypassAttempt
		var attempted int
		if err := rows.Scan(&a.Tier, &attempted); err != nil {
			return nil, fmt.Errorf("scanning bypass attempt: %w", err)
		}
		a.Attempted = intToBool(attempted)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bypass attempts: %w", err)
	}
	return out, nil
}
