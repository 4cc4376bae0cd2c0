package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexanderramin/learnpath/internal/catalog"
	"github.com/alexanderramin/learnpath/internal/domain"
	"github.com/alexanderramin/learnpath/internal/gate"
	"github.com/alexanderramin/learnpath/internal/logger"
	"github.com/alexanderramin/learnpath/internal/reconcile"
	"github.com/alexanderramin/learnpath/internal/store"
)

// ErrTierLocked is returned when a command targets a course whose tier is
// not unlocked yet.
var ErrTierLocked = errors.New("tier is locked")

type SessionOptions struct {
	Store store.Options
	Guest GuestStorage
	Log   *logger.Logger
}

// Session is one learner's run: the progress store, the reconciler that
// owns its sign-in lifecycle, and the tier gate over the catalog.
type Session struct {
	cat   catalog.Provider
	store *store.Store
	rec   *reconcile.Reconciler
	gate  *gate.Gate
	guest GuestStorage
	log   *logger.Logger
}

func NewSession(cat catalog.Provider, durable Durable, opts SessionOptions) *Session {
	log := logger.OrNop(opts.Log)
	storeOpts := opts.Store
	if storeOpts.Log == nil {
		storeOpts.Log = log
	}
	s := store.New(cat, durable, storeOpts)
	return &Session{
		cat:   cat,
		store: s,
		rec:   reconcile.New(s, durable, log),
		gate:  gate.New(cat),
		guest: opts.Guest,
		log:   log,
	}
}

func (s *Session) Store() *store.Store { return s.store }
func (s *Session) Reconciler() *reconcile.Reconciler { return s.rec }
func (s *Session) Gate() *gate.Gate { return s.gate }
func (s *Session) Catalog() catalog.Provider { return s.cat }

// Open starts the session with the stored guest progress, then signs in as
// userID unless it is empty.
func (s *Session) Open(ctx context.Context, userID string) error {
	snap := domain.NewSnapshot()
	if s.guest != nil {
		loaded, err := s.guest.Load()
		if err != nil {
			return err
		}
		snap = loaded
	}
	return s.OpenWithGuest(ctx, userID, snap)
}

// OpenWithGuest is Open with an explicit guest snapshot. Stored guest
// progress is cleared once sign-in has accounted for all of it in durable
// storage. After a failed read or upload it is kept for the next run.
func (s *Session) OpenWithGuest(ctx context.Context, userID string, guest *domain.Snapshot) error {
	s.store.Adopt("", guest)
	s.rec.OnAuthChange(ctx, reconcile.AuthState{})
	if userID == "" {
		return nil
	}

	s.rec.OnAuthChange(ctx, reconcile.AuthState{Authenticated: true, UserID: userID})
	if s.guest == nil || guest.IsEmpty() {
		return nil
	}
	result := s.rec.Migration()
	if !result.GuestConsumed() {
		s.log.Warn("keeping guest progress after incomplete migration", "user_id", userID, "migration", string(result))
		return nil
	}
	if err := s.guest.Clear(); err != nil {
		return err
	}
	s.log.Info("guest progress consumed by sign-in", "user_id", userID, "migration", string(result))
	return nil
}

// SignOut flushes the current user and drops back to an empty guest.
func (s *Session) SignOut(ctx context.Context) {
	s.rec.OnAuthChange(ctx, reconcile.AuthState{})
}

// Close flushes pending saves. Guest progress is written to guest storage.
func (s *Session) Close(ctx context.Context) error {
	if err := s.store.Flush(ctx); err != nil {
		return fmt.Errorf("flushing progress: %w", err)
	}
	if s.store.UserID() == "" && s.guest != nil {
		if err := s.guest.Save(s.store.Snapshot()); err != nil {
			return err
		}
	}
	return s.store.Close(ctx)
}

// Overview returns the per-tier progress view.
func (s *Session) Overview() ProgressOverview {
	return BuildOverview(s.cat, s.store, s.gate)
}

// ProgramComplete reports whether every course is completed or credited.
func (s *Session) ProgramComplete() bool {
	return s.store.Program().AllCoursesCompleted
}

// RequireUnlocked returns ErrTierLocked when courseID's tier is closed.
func (s *Session) RequireUnlocked(courseID string) error {
	course, ok := s.cat.Course(courseID)
	if !ok {
		return fmt.Errorf("%w: %s", catalog.ErrUnknownCourse, courseID)
	}
	if !s.gate.IsTierUnlocked(course.Tier, s.store.CompletedCourseIDs()) {
		return fmt.Errorf("%w: course %s is in tier %d", ErrTierLocked, courseID, course.Tier)
	}
	return nil
}

// Bypass records a tier-skip quiz attempt and credits every passed course.
func (s *Session) Bypass(tier int, passedCourseIDs []string) error {
	if len(s.gate.Courses(tier)) == 0 {
		return fmt.Errorf("unknown tier %d", tier)
	}
	s.store.RecordBypassAttempt(tier)
	gate.OnQuizComplete(s.store, passedCourseIDs)
	return nil
}
