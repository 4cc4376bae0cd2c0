package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/learnpath/internal/domain"
)

type CourseProgressRepo interface {
	Upsert(ctx context.Context, userID string, cp *domain.CourseProgress) error
	Get(ctx context.Context, userID, courseID string) (*domain.CourseProgress, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.CourseProgress, error)
}

type ModuleProgressRepo interface {
	Upsert(ctx context.Context, userID string, mp *domain.ModuleProgress) error
	ListByUser(ctx context.Context, userID string) ([]*domain.ModuleProgress, error)
}

type BypassAttemptRepo interface {
	Record(ctx context.Context, userID string, tier int, at time.Time) error
	ListByUser(ctx context.Context, userID string) ([]domain.BypassAttempt, error)
}

type ProgramProgressRepo interface {
	MarkCompleted(ctx context.Context, userID string, completedAt time.Time) error
	Get(ctx context.Context, userID string) (*domain.ProgramProgress, error)
}

type CertificateRepo interface {
	Create(ctx context.Context, c *domain.Certificate) error
	GetByID(ctx context.Context, id string) (*domain.Certificate, error)
	GetByUserID(ctx context.Context, userID string) (*domain.Certificate, error)
}
