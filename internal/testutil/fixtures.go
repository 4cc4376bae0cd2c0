package testutil

import (
	"time"

	"github.com/alexanderramin/learnpath/internal/domain"
	"github.com/google/uuid"
)

// FixedTime is the reference timestamp fixtures use unless told otherwise.
var FixedTime = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// CourseProgress options
type CourseOption func(*domain.CourseProgress)

func WithStatus(s domain.CourseStatus) CourseOption {
	return func(cp *domain.CourseProgress) {
		cp.Status = s
	}
}

func WithModules(ids ...string) CourseOption {
	return func(cp *domain.CourseProgress) {
		cp.CompletedModules = append(cp.CompletedModules, ids...)
	}
}

func WithCFUAnswer(cfuID, selected string, correct bool) CourseOption {
	return func(cp *domain.CourseProgress) {
		cp.CFUAnswers[cfuID] = domain.CFUAnswer{
			SelectedAnswer: selected,
			Correct:        correct,
			AnsweredAt:     FixedTime,
		}
	}
}

func WithUpdatedAt(t time.Time) CourseOption {
	return func(cp *domain.CourseProgress) {
		cp.UpdatedAt = t
	}
}

func NewTestCourseProgress(courseID string, opts ...CourseOption) *domain.CourseProgress {
	cp := domain.NewCourseProgress(courseID)
	cp.UpdatedAt = FixedTime
	for _, opt := range opts {
		opt(cp)
	}
	return cp
}

func NewTestMasteredModule(moduleID string) *domain.ModuleProgress {
	at := FixedTime
	return &domain.ModuleProgress{ModuleID: moduleID, Mastered: true, MasteredAt: &at}
}

// Certificate options
type CertificateOption func(*domain.Certificate)

func WithRecipient(name, email string) CertificateOption {
	return func(c *domain.Certificate) {
		c.RecipientName = name
		c.RecipientEmail = email
	}
}

func NewTestCertificate(userID string, opts ...CertificateOption) *domain.Certificate {
	c := &domain.Certificate{
		ID:             uuid.New().String(),
		UserID:         userID,
		RecipientName:  "Test Educator",
		RecipientEmail: "educator@example.com",
		IssuedAt:       FixedTime,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewTestSnapshot builds a snapshot from course records.
func NewTestSnapshot(courses ...*domain.CourseProgress) *domain.Snapshot {
	snap := domain.NewSnapshot()
	for _, cp := range courses {
		snap.Courses[cp.CourseID] = cp
	}
	return snap
}
