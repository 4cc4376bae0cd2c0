package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/learnpath/internal/db"
	"github.com/alexanderramin/learnpath/internal/domain"
	"github.com/alexanderramin/learnpath/internal/repository"
)

// ProgressRepos groups the per-table repositories behind DurableProgress.
type ProgressRepos struct {
	Courses repository.CourseProgressRepo
	Modules repository.ModuleProgressRepo
	Bypass  repository.BypassAttemptRepo
	Program repository.ProgramProgressRepo
}

// NewSQLiteProgressRepos builds ProgressRepos over conn.
func NewSQLiteProgressRepos(conn db.DBTX) ProgressRepos {
	return ProgressRepos{
		Courses: repository.NewSQLiteCourseProgressRepo(conn),
		Modules: repository.NewSQLiteModuleProgressRepo(conn),
		Bypass:  repository.NewSQLiteBypassAttemptRepo(conn),
		Program: repository.NewSQLiteProgramProgressRepo(conn),
	}
}

// DurableProgress is the gateway between in-memory progress and the
// progress tables. It serves the progress store's single-entity saves and
// the reconciler's snapshot loads and bulk uploads.
type DurableProgress struct {
	repos    ProgressRepos
	uow      db.UnitOfWork
	observer UseCaseObserver
	now      func() time.Time
}

func NewDurableProgress(repos ProgressRepos, uow db.UnitOfWork, observers ...UseCaseObserver) *DurableProgress {
	return &DurableProgress{
		repos:    repos,
		uow:      uow,
		observer: useCaseObserverOrNoop(observers),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (d *DurableProgress) SaveCourse(ctx context.Context, userID string, cp *domain.CourseProgress) error {
	return d.repos.Courses.Upsert(ctx, userID, cp)
}

func (d *DurableProgress) SaveModule(ctx context.Context, userID string, mp *domain.ModuleProgress) error {
	return d.repos.Modules.Upsert(ctx, userID, mp)
}

func (d *DurableProgress) SaveBypassAttempt(ctx context.Context, userID string, tier int) error {
	return d.repos.Bypass.Record(ctx, userID, tier, d.now())
}

func (d *DurableProgress) SaveProgramCompletion(ctx context.Context, userID string, completedAt time.Time) error {
	return d.repos.Program.MarkCompleted(ctx, userID, completedAt)
}

// LoadSnapshot reads everything stored for userID in one transaction. A
// user with no rows gets an empty snapshot.
func (d *DurableProgress) LoadSnapshot(ctx context.Context, userID string) (snap *domain.Snapshot, err error) {
	startedAt := time.Now()
	fields := map[string]any{"user_id": userID}
	defer observe(ctx, d.observer, "load-progress", startedAt, fields, &err)

	snap = domain.NewSnapshot()
	err = d.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repos := NewSQLiteProgressRepos(tx)

		courses, err := repos.Courses.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		for _, cp := range courses {
			snap.Courses[cp.CourseID] = cp
		}

		modules, err := repos.Modules.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		for _, mp := range modules {
			snap.Modules[mp.ModuleID] = mp
		}

		attempts, err := repos.Bypass.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		for _, a := range attempts {
			snap.BypassAttempts[a.Tier] = a.Attempted
		}

		program, err := repos.Program.Get(ctx, userID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
		case err != nil:
			return err
		default:
			snap.Program = *program
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading progress for %s: %w", userID, err)
	}
	fields["course_count"] = len(snap.Courses)
	fields["empty"] = snap.IsEmpty()
	return snap, nil
}

// UpsertCourses writes courses for userID atomically.
func (d *DurableProgress) UpsertCourses(ctx context.Context, userID string, courses []*domain.CourseProgress) (err error) {
	startedAt := time.Now()
	defer observe(ctx, d.observer, "upsert-courses", startedAt, map[string]any{"user_id": userID, "count": len(courses)}, &err)

	return d.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo := repository.NewSQLiteCourseProgressRepo(tx)
		for _, cp := range courses {
			if err := repo.Upsert(ctx, userID, cp); err != nil {
				return fmt.Errorf("course %q: %w", cp.CourseID, err)
			}
		}
		return nil
	})
}

// UpsertModules writes module mastery for userID atomically.
func (d *DurableProgress) UpsertModules(ctx context.Context, userID string, modules []*domain.ModuleProgress) (err error) {
	startedAt := time.Now()
	defer observe(ctx, d.observer, "upsert-modules", startedAt, map[string]any{"user_id": userID, "count": len(modules)}, &err)

	return d.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo := repository.NewSQLiteModuleProgressRepo(tx)
		for _, mp := range modules {
			if err := repo.Upsert(ctx, userID, mp); err != nil {
				return fmt.Errorf("module %q: %w", mp.ModuleID, err)
			}
		}
		return nil
	})
}

// UpsertBypassAttempts records the attempted tiers for userID atomically.
func (d *DurableProgress) UpsertBypassAttempts(ctx context.Context, userID string, tiers []int) (err error) {
	startedAt := time.Now()
	defer observe(ctx, d.observer, "upsert-bypass-attempts", startedAt, map[string]any{"user_id": userID, "count": len(tiers)}, &err)

	now := d.now()
	return d.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo := repository.NewSQLiteBypassAttemptRepo(tx)
		for _, tier := range tiers {
			if err := repo.Record(ctx, userID, tier, now); err != nil {
				return fmt.Errorf("tier %d: %w", tier, err)
			}
		}
		return nil
	})
}
