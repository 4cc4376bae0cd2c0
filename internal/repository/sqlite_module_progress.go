package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/learnpath/internal/db"
	"github.com/alexanderramin/learnpath/internal/domain"
)

// SQLiteModuleProgressRepo implements ModuleProgressRepo using a SQLite database.
type SQLiteModuleProgressRepo struct {
	db db.DBTX
}

func NewSQLiteModuleProgressRepo(conn db.DBTX) *SQLiteModuleProgressRepo {
	return &SQLiteModuleProgressRepo{db: conn}
}

// Upsert writes mp for userID. Mastery is never revoked and the first
// mastered_at is kept.
func (r *SQLiteModuleProgressRepo) Upsert(ctx context.Context, userID string, mp *domain.ModuleProgress) error {
	query := `INSERT INTO module_progress (user_id, module_id, mastered, mastered_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, module_id) DO UPDATE SET
			mastered    = MAX(module_progress.mastered, excluded.mastered),
			mastered_at = COALESCE(module_progress.mastered_at, excluded.mastered_at)`
	_, err := r.db.ExecContext(ctx, query,
		userID,
		mp.ModuleID,
		boolToInt(mp.Mastered),
		nullableTimeToString(mp.MasteredAt, timeLayout),
	)
	if err != nil {
		return fmt.Errorf("upserting module progress: %w", err)
	}
	return nil
}

func (r *SQLiteModuleProgressRepo) ListByUser(ctx context.Context, userID string) ([]*domain.ModuleProgress, error) {
	query := `SELECT module_id, mastered, mastered_at FROM module_progress
		WHERE user_id = ? ORDER BY module_id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing module progress: %w", err)
	}
	defer rows.Close()

	var out []*domain.ModuleProgress
	for rows.Next() {
		var (
			mp         domain.ModuleProgress
			mastered   int
			masteredAt sql.NullString
		)
		if err := rows.Scan(&mp.ModuleID, &mastered, &masteredAt); err != nil {
			return nil, fmt.Errorf("scanning module progress: %w", err)
		}
		mp.Mastered = intToBool(mastered)
		mp.MasteredAt = parseNullableTime(masteredAt, timeLayout)
		out = append(out, &mp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating module progress: %w", err)
	}
	return out, nil
}
