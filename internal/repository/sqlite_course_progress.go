package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/learnpath/internal/db"
	"github.com/alexanderramin/learnpath/internal/domain"
)

// SQLiteCourseProgressRepo implements CourseProgressRepo using a SQLite database.
type SQLiteCourseProgressRepo struct {
	db db.DBTX
}

func NewSQLiteCourseProgressRepo(conn db.DBTX) *SQLiteCourseProgressRepo {
	return &SQLiteCourseProgressRepo{db: conn}
}

// cfuAnswerRow is the stored JSON shape of one CFU answer.
type cfuAnswerRow struct {
	SelectedAnswer string    `json:"selected_answer"`
	Correct        bool      `json:"is_correct"`
	AnsweredAt     time.Time `json:"answered_at"`
}

const courseProgressColumns = `course_id, completed_modules, cfu_answers, status, is_completed, updated_at`

// statusRankSQL mirrors domain.CourseStatus.Rank for a status column.
func statusRankSQL(col string) string {
	return `CASE ` + col + ` WHEN 'credited' THEN 3 WHEN 'completed' THEN 2 WHEN 'in_progress' THEN 1 ELSE 0 END`
}

// Upsert writes cp for userID. The stored row never loses ground: the
// higher-ranked status wins, completed modules are merged, and stored CFU
// answers are kept for questions cp has no answer for.
func (r *SQLiteCourseProgressRepo) Upsert(ctx context.Context, userID string, cp *domain.CourseProgress) error {
	stored, err := r.Get(ctx, userID, cp.CourseID)
	switch {
	case errors.Is(err, ErrNotFound):
		stored = nil
	case err != nil:
		return err
	}
	cp = domain.MergeCourseProgress(stored, cp)

	modules := cp.CompletedModules
	if modules == nil {
		modules = []string{}
	}
	modulesJSON, err := marshalJSONColumn("completed_modules", modules)
	if err != nil {
		return err
	}
	answers := make(map[string]cfuAnswerRow, len(cp.CFUAnswers))
	for id, a := range cp.CFUAnswers {
		answers[id] = cfuAnswerRow{SelectedAnswer: a.SelectedAnswer, Correct: a.Correct, AnsweredAt: a.AnsweredAt.UTC()}
	}
	answersJSON, err := marshalJSONColumn("cfu_answers", answers)
	if err != nil {
		return err
	}
	status := cp.Status
	if status == "" {
		status = domain.CourseNotStarted
	}

	query := `INSERT INTO course_progress (user_id, course_id, completed_modules, cfu_answers,
		status, is_completed, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, course_id) DO UPDATE SET
			completed_modules = excluded.completed_modules,
			cfu_answers       = excluded.cfu_answers,
			status            = CASE WHEN ` + statusRankSQL("excluded.status") + ` >= ` + statusRankSQL("course_progress.status") + `
			                    THEN excluded.status ELSE course_progress.status END,
			is_completed      = MAX(course_progress.is_completed, excluded.is_completed),
			updated_at        = excluded.updated_at`
	_, err = r.db.ExecContext(ctx, query,
		userID,
		cp.CourseID,
		modulesJSON,
		answersJSON,
		string(status),
		boolToInt(cp.IsCompleted()),
		formatTime(cp.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upserting course progress: %w", err)
	}
	return nil
}

func (r *SQLiteCourseProgressRepo) Get(ctx context.Context, userID, courseID string) (*domain.CourseProgress, error) {
	query := `SELECT ` + courseProgressColumns + ` FROM course_progress WHERE user_id = ? AND course_id = ?`
	cp, err := scanCourseProgress(r.db.QueryRowContext(ctx, query, userID, courseID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("course progress: %w", ErrNotFound)
		}
		return nil, err
	}
	return cp, nil
}

func (r *SQLiteCourseProgressRepo) ListByUser(ctx context.Context, userID string) ([]*domain.CourseProgress, error) {
	query := `SELECT ` + courseProgressColumns + ` FROM course_progress WHERE user_id = ? ORDER BY course_id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing course progress: %w", err)
	}
	defer rows.Close()

	var out []*domain.CourseProgress
	for rows.Next() {
		cp, err := scanCourseProgress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating course progress: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCourseProgress(row rowScanner) (*domain.CourseProgress, error) {
	var (
		courseID, modulesJSON, answersJSON, status, updatedAt string
		isCompleted                                           int
	)
	if err := row.Scan(&courseID, &modulesJSON, &answersJSON, &status, &isCompleted, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning course progress: %w", err)
	}

	cp := domain.NewCourseProgress(courseID)
	cp.Status = domain.CourseStatus(status)
	if isCompleted == 1 {
		cp.AdvanceStatus(domain.CourseCompleted)
	}
	cp.UpdatedAt = parseTime(updatedAt)
	if err := unmarshalJSONColumn("completed_modules", modulesJSON, &cp.CompletedModules); err != nil {
		return nil, err
	}
	var answers map[string]cfuAnswerRow
	if err := unmarshalJSONColumn("cfu_answers", answersJSON, &answers); err != nil {
		return nil, err
	}
	for id, a := range answers {
		cp.CFUAnswers[id] = domain.CFUAnswer{SelectedAnswer: a.SelectedAnswer, Correct: a.Correct, AnsweredAt: a.AnsweredAt}
	}
	if len(cp.CompletedModules) == 0 {
		cp.CompletedModules = nil
	}
	return cp, nil
}
