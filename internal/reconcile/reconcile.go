// Package reconcile moves a progress store between guest and authenticated
// ownership, migrating guest progress into durable storage exactly once.
package reconcile

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alexanderramin/learnpath/internal/domain"
	"github.com/alexanderramin/learnpath/internal/logger"
)

// State is the reconciler's position in the sign-in lifecycle.
type State string

const (
	StateGuest     State = "guest"
	StateMigrating State = "migrating"
	StateLoaded    State = "loaded"
)

// MigrationResult is what the one-shot guest migration did with the guest
// snapshot.
type MigrationResult string

const (
	MigrationNotRun      MigrationResult = ""
	MigrationNothing     MigrationResult = "nothing"
	MigrationKeptDurable MigrationResult = "kept_durable"
	MigrationUploaded    MigrationResult = "uploaded"
	MigrationPartial     MigrationResult = "partial"
	MigrationReadFailed  MigrationResult = "read_failed"
)

// GuestConsumed reports whether the guest snapshot is fully accounted for
// in durable storage, either uploaded or superseded by existing account
// progress. Only then may a stored copy of it be dropped.
func (m MigrationResult) GuestConsumed() bool {
	return m == MigrationNothing || m == MigrationKeptDurable || m == MigrationUploaded
}

// AuthState is one notification from the auth provider.
type AuthState struct {
	Authenticated bool
	UserID        string
}

// Durable reads and bulk-writes a user's progress.
type Durable interface {
	LoadSnapshot(ctx context.Context, userID string) (*domain.Snapshot, error)
	UpsertCourses(ctx context.Context, userID string, courses []*domain.CourseProgress) error
	UpsertModules(ctx context.Context, userID string, modules []*domain.ModuleProgress) error
	UpsertBypassAttempts(ctx context.Context, userID string, tiers []int) error
	SaveProgramCompletion(ctx context.Context, userID string, completedAt time.Time) error
}

// Store is the slice of the progress store the reconciler drives.
type Store interface {
	Snapshot() *domain.Snapshot
	Adopt(userID string, snap *domain.Snapshot)
	Reset()
	Flush(ctx context.Context) error
}

// Reconciler serializes auth notifications. Each call to OnAuthChange runs
// to completion under the reconciler's mutex, so the migration flag is
// checked and consumed atomically.
type Reconciler struct {
	store   Store
	durable Durable
	log     *logger.Logger

	mu            sync.Mutex
	state         State
	authenticated bool
	userID        string
	migrated      bool
	migration     MigrationResult
	guest         *domain.Snapshot
}

func New(store Store, durable Durable, log *logger.Logger) *Reconciler {
	return &Reconciler{
		store:   store,
		durable: durable,
		log:     logger.OrNop(log).With("component", "reconciler"),
		state:   StateGuest,
	}
}

// State returns the current lifecycle state.
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Migrated reports whether the one-shot guest migration has been consumed.
func (r *Reconciler) Migrated() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.migrated
}

// Migration returns the outcome of the guest migration, or MigrationNotRun.
func (r *Reconciler) Migration() MigrationResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.migration
}

// OnAuthChange applies one auth notification.
func (r *Reconciler) OnAuthChange(ctx context.Context, auth AuthState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wasAuthenticated := r.authenticated
	switch {
	case !auth.Authenticated && !wasAuthenticated:
		if r.state == StateGuest {
			r.guest = r.store.Snapshot()
		}

	case auth.Authenticated && !wasAuthenticated:
		r.authenticated = true
		r.userID = auth.UserID
		if !r.migrated {
			r.migrate(ctx, auth.UserID)
			return
		}
		r.load(ctx, auth.UserID)

	case auth.Authenticated && wasAuthenticated:
		if auth.UserID == r.userID {
			return
		}
		r.log.Info("switching user", "from_user_id", r.userID, "to_user_id", auth.UserID)
		if err := r.store.Flush(ctx); err != nil {
			r.log.Warn("flush before user switch", "error", err)
		}
		r.userID = auth.UserID
		r.load(ctx, auth.UserID)

	default:
		r.signOut(ctx)
	}
}

// migrate runs the one-shot guest migration for userID. Callers hold r.mu.
func (r *Reconciler) migrate(ctx context.Context, userID string) {
	r.state = StateMigrating
	r.migrated = true

	guest := r.store.Snapshot()
	if guest.IsEmpty() && r.guest != nil {
		guest = r.guest
	}
	r.guest = nil

	durable, err := r.durable.LoadSnapshot(ctx, userID)
	if err != nil {
		r.log.Error("loading durable progress for migration", "user_id", userID, "error", err)
		r.store.Adopt(userID, nil)
		r.migration = MigrationReadFailed
		r.state = StateLoaded
		return
	}

	switch {
	case !durable.IsEmpty():
		r.log.Info("durable progress found, discarding guest progress",
			"user_id", userID, "guest_empty", guest.IsEmpty())
		r.store.Adopt(userID, durable)
		r.migration = MigrationKeptDurable
	case !guest.IsEmpty():
		r.log.Info("migrating guest progress", "user_id", userID)
		r.migration = MigrationUploaded
		if !r.upload(ctx, userID, guest) {
			r.migration = MigrationPartial
		}
		r.store.Adopt(userID, guest)
	default:
		r.store.Adopt(userID, nil)
		r.migration = MigrationNothing
	}
	r.state = StateLoaded
}

// upload writes the non-trivial parts of snap and its program marker. The
// kinds run concurrently and fail independently; failures are logged and
// never abort the migration. Reports whether every write succeeded.
func (r *Reconciler) upload(ctx context.Context, userID string, snap *domain.Snapshot) bool {
	courses, modules, tiers := migratable(snap)

	var (
		g      errgroup.Group
		mu     sync.Mutex
		failed bool
	)
	run := func(what string, count int, write func() error) {
		g.Go(func() error {
			if err := write(); err != nil {
				r.log.Error("migrating "+what, "user_id", userID, "count", count, "error", err)
				mu.Lock()
				failed = true
				mu.Unlock()
			}
			return nil
		})
	}
	if len(courses) > 0 {
		run("courses", len(courses), func() error { return r.durable.UpsertCourses(ctx, userID, courses) })
	}
	if len(modules) > 0 {
		run("module mastery", len(modules), func() error { return r.durable.UpsertModules(ctx, userID, modules) })
	}
	if len(tiers) > 0 {
		run("bypass attempts", len(tiers), func() error { return r.durable.UpsertBypassAttempts(ctx, userID, tiers) })
	}
	if program := snap.Program; program.AllCoursesCompleted {
		completedAt := time.Now().UTC()
		if program.CompletedAt != nil {
			completedAt = *program.CompletedAt
		}
		run("program completion", 1, func() error { return r.durable.SaveProgramCompletion(ctx, userID, completedAt) })
	}
	_ = g.Wait()
	return !failed
}

// load replaces the store's state with userID's durable progress. Callers
// hold r.mu.
func (r *Reconciler) load(ctx context.Context, userID string) {
	snap, err := r.durable.LoadSnapshot(ctx, userID)
	if err != nil {
		r.log.Error("loading durable progress", "user_id", userID, "error", err)
		snap = nil
	}
	r.store.Adopt(userID, snap)
	r.state = StateLoaded
}

// signOut flushes the departing user's pending saves and returns the store
// to an empty guest. Callers hold r.mu.
func (r *Reconciler) signOut(ctx context.Context) {
	if err := r.store.Flush(ctx); err != nil {
		r.log.Warn("flush on sign-out", "user_id", r.userID, "error", err)
	}
	r.store.Reset()
	r.authenticated = false
	r.userID = ""
	r.guest = nil
	r.state = StateGuest
}

// migratable picks the guest records worth uploading: non-trivial courses,
// mastered modules and attempted tiers, each in a stable order.
func migratable(snap *domain.Snapshot) ([]*domain.CourseProgress, []*domain.ModuleProgress, []int) {
	var courses []*domain.CourseProgress
	for _, cp := range snap.Courses {
		if !cp.IsTrivial() {
			courses = append(courses, cp)
		}
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].CourseID < courses[j].CourseID })

	var modules []*domain.ModuleProgress
	for _, mp := range snap.Modules {
		if mp != nil && mp.Mastered {
			modules = append(modules, mp)
		}
	}
	sort.Slice(modules, func(i, j int) bool { return modules[i].ModuleID < modules[j].ModuleID })

	var tiers []int
	for tier, attempted := range snap.BypassAttempts {
		if attempted {
			tiers = append(tiers, tier)
		}
	}
	sort.Ints(tiers)
	return courses, modules, tiers
}
