// Package store holds the live progress state of one learner session and
// the commands that mutate it.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/alexanderramin/learnpath/internal/catalog"
	"github.com/alexanderramin/learnpath/internal/domain"
	"github.com/alexanderramin/learnpath/internal/logger"
	"github.com/alexanderramin/learnpath/internal/progress"
)

// DefaultSaveDebounce is the coalescing window for section and CFU saves.
const DefaultSaveDebounce = 500 * time.Millisecond

// Persister writes progress to durable storage. Every method is an
// idempotent upsert keyed by user and entity.
type Persister interface {
	SaveCourse(ctx context.Context, userID string, cp *domain.CourseProgress) error
	SaveModule(ctx context.Context, userID string, mp *domain.ModuleProgress) error
	SaveBypassAttempt(ctx context.Context, userID string, tier int) error
	SaveProgramCompletion(ctx context.Context, userID string, completedAt time.Time) error
}

// Options configures a Store. Zero values select defaults.
type Options struct {
	SaveDebounce time.Duration
	Now          func() time.Time
	Log          *logger.Logger
}

type writeJob struct {
	op     string
	entity string
	userID string
	run    func(ctx context.Context) error
}

// Store is the in-memory progress state. Commands apply atomically under a
// mutex and never wait on durable storage: writes are queued and applied in
// order by a background drainer, and only while the store has an owner.
type Store struct {
	cat      catalog.Provider
	persist  Persister
	log      *logger.Logger
	now      func() time.Time
	debounce time.Duration

	mu             sync.Mutex
	idle           *sync.Cond
	userID         string
	state          *domain.Snapshot
	totalCompleted int
	pending        map[string]*Pending
	queue          []writeJob
	draining       bool
	closed         bool
}

// New returns an empty guest store.
func New(cat catalog.Provider, persist Persister, opts Options) *Store {
	s := &Store{
		cat:      cat,
		persist:  persist,
		log:      logger.OrNop(opts.Log).With("component", "progress_store"),
		now:      opts.Now,
		debounce: opts.SaveDebounce,
		state:    domain.NewSnapshot(),
		pending:  make(map[string]*Pending),
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.debounce <= 0 {
		s.debounce = DefaultSaveDebounce
	}
	s.idle = sync.NewCond(&s.mu)
	return s
}

// --- Commands ---

// InitCourse creates a not-started record for courseID unless one exists.
func (s *Store) InitCourse(courseID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.knownCourse(courseID) {
		return
	}
	s.ensureCourse(courseID)
}

// CompleteSection records a completed section. sectionID may be a module id
// or a legacy "section-N" label. No-op when the course has no record yet,
// the section is unknown, or it is already recorded.
func (s *Store) CompleteSection(courseID, sectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp, ok := s.state.Courses[courseID]
	if !ok {
		return
	}
	moduleID, ok := catalog.ResolveSection(s.cat, courseID, sectionID)
	if !ok {
		s.log.Debug("ignoring unknown section", "course_id", courseID, "section_id", sectionID)
		return
	}
	if !cp.AddModule(moduleID) {
		return
	}
	cp.AdvanceStatus(domain.CourseInProgress)
	cp.UpdatedAt = s.now()
	if !s.completeIfAllMastered(courseID, cp) {
		s.armCourseSave(courseID)
	}
}

// AnswerCFU stores the answer for cfuID, replacing any earlier answer.
func (s *Store) AnswerCFU(courseID, cfuID, selectedAnswer string, isCorrect bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.knownCourse(courseID) || cfuID == "" {
		return
	}
	cp := s.ensureCourse(courseID)
	now := s.now()
	cp.CFUAnswers[cfuID] = domain.CFUAnswer{
		SelectedAnswer: selectedAnswer,
		Correct:        isCorrect,
		AnsweredAt:     now,
	}
	cp.AdvanceStatus(domain.CourseInProgress)
	cp.UpdatedAt = now
	s.armCourseSave(courseID)
}

// CompleteCourse marks courseID completed. No-op when it is already
// completed or credited.
func (s *Store) CompleteCourse(courseID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.knownCourse(courseID) {
		return
	}
	cp := s.ensureCourse(courseID)
	if cp.IsCompleted() {
		return
	}
	cp.UpdatedAt = s.now()
	s.markCompleted(courseID, cp)
}

// MarkModuleMastered sets mastery for moduleID and mirrors it into the
// owning course's completed modules. Mastery is never revoked.
func (s *Store) MarkModuleMastered(moduleID, courseID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	def, ok := s.cat.Module(moduleID)
	if !ok || def.CourseID != courseID {
		s.log.Debug("ignoring unknown module", "module_id", moduleID, "course_id", courseID)
		return
	}

	now := s.now()
	mp, ok := s.state.Modules[moduleID]
	if !ok {
		mp = &domain.ModuleProgress{ModuleID: moduleID}
		s.state.Modules[moduleID] = mp
	}
	if mp.Master(now) {
		saved := *mp
		s.enqueue("save_module", moduleID, func(ctx context.Context, userID string) error {
			return s.persist.SaveModule(ctx, userID, &saved)
		})
	}

	cp := s.ensureCourse(courseID)
	added := cp.AddModule(moduleID)
	advanced := cp.AdvanceStatus(domain.CourseInProgress)
	if added || advanced {
		cp.UpdatedAt = now
		if !s.completeIfAllMastered(courseID, cp) {
			s.armCourseSave(courseID)
		}
	}
}

// MarkCompleteViaQuiz grants whole-course credit for courseID from a passed
// tier-bypass quiz. Ids that are not catalog courses are ignored.
func (s *Store) MarkCompleteViaQuiz(courseID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !catalog.IsCourse(s.cat, courseID) {
		s.log.Warn("ignoring quiz credit for non-course id", "id", courseID)
		return
	}
	cp := s.ensureCourse(courseID)
	wasCompleted := cp.IsCompleted()
	if cp.Status == domain.CourseCredited {
		return
	}
	cp.AdvanceStatus(domain.CourseCredited)
	cp.UpdatedAt = s.now()
	if !wasCompleted {
		s.totalCompleted++
	}
	s.saveCourseNow(courseID)
	s.checkProgramCompletion()
}

// RecordBypassAttempt flags that the learner attempted the skip quiz for
// tier. The flag stays set even if the durable write fails.
func (s *Store) RecordBypassAttempt(tier int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tier < 1 {
		return
	}
	s.state.BypassAttempts[tier] = true
	s.enqueue("save_bypass_attempt", "", func(ctx context.Context, userID string) error {
		return s.persist.SaveBypassAttempt(ctx, userID, tier)
	})
}

// --- Accessors ---

// CoursePercent returns the completion percent of courseID.
func (s *Store) CoursePercent(courseID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return progress.CoursePercent(s.cat, s.state.Courses[courseID], courseID)
}

// ProgramPercent returns the program-wide completion percent.
func (s *Store) ProgramPercent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return progress.ProgramPercent(s.cat, s.state.Courses)
}

// CompletedCourseIDs returns completed or credited courses in catalog order.
func (s *Store) CompletedCourseIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return progress.CompletedCourseIDs(s.cat, s.state.Courses)
}

// CourseStatus returns the derived status of courseID.
func (s *Store) CourseStatus(courseID string) domain.CourseStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp, ok := s.state.Courses[courseID]
	if !ok {
		return domain.CourseNotStarted
	}
	mastered := progress.MasteredInCourse(s.cat, cp.CompletedModules, courseID)
	return progress.DetermineStatus(mastered, s.cat.ModuleCount(courseID), cp.IsCompleted(), cp.Status)
}

// IsModuleMastered reports whether moduleID is mastered.
func (s *Store) IsModuleMastered(moduleID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	mp, ok := s.state.Modules[moduleID]
	return ok && mp.Mastered
}

// Course returns a copy of the record for courseID.
func (s *Store) Course(courseID string) (*domain.CourseProgress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp, ok := s.state.Courses[courseID]
	return cp.Clone(), ok
}

// BypassAttempted reports whether the skip quiz for tier was attempted.
func (s *Store) BypassAttempted(tier int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.BypassAttempts[tier]
}

// Program returns the cached program completion marker.
func (s *Store) Program() domain.ProgramProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone().Program
}

// TotalCompleted returns how many courses are completed or credited.
func (s *Store) TotalCompleted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalCompleted
}

// Snapshot returns a deep copy of the whole state.
func (s *Store) Snapshot() *domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// UserID returns the owning user, or "" for a guest store.
func (s *Store) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// --- Lifecycle ---

// Adopt replaces the state with snap owned by userID. Pending saves of the
// previous owner are flushed first.
func (s *Store) Adopt(userID string, snap *domain.Snapshot) {
	s.flushPending()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.userID = userID
	s.state = snap.Clone()
	s.totalCompleted = len(progress.CompletedCourseIDs(s.cat, s.state.Courses))
	s.checkProgramCompletion()
}

// Reset returns the store to an empty guest state, flushing pending saves.
func (s *Store) Reset() {
	s.Adopt("", nil)
}

// Flush runs every pending debounced save and waits until queued writes
// have been applied or ctx is done.
func (s *Store) Flush(ctx context.Context) error {
	s.flushPending()

	done := make(chan struct{})
	go func() {
		s.mu.Lock()
		for s.draining {
			s.idle.Wait()
		}
		s.mu.Unlock()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close flushes and then stops accepting durable writes. In-memory commands
// keep working.
func (s *Store) Close(ctx context.Context) error {
	err := s.Flush(ctx)
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return err
}

// --- internals (callers hold s.mu unless noted) ---

func (s *Store) knownCourse(courseID string) bool {
	if catalog.IsCourse(s.cat, courseID) {
		return true
	}
	s.log.Debug("ignoring unknown course", "course_id", courseID)
	return false
}

func (s *Store) ensureCourse(courseID string) *domain.CourseProgress {
	cp, ok := s.state.Courses[courseID]
	if !ok {
		cp = domain.NewCourseProgress(courseID)
		s.state.Courses[courseID] = cp
	}
	return cp
}

// armCourseSave (re)arms the debounced save for courseID. Guest stores do
// not persist, so nothing is armed.
func (s *Store) armCourseSave(courseID string) {
	if s.userID == "" {
		return
	}
	p, ok := s.pending[courseID]
	if !ok {
		p = NewPending(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.saveCourseNow(courseID)
		})
		s.pending[courseID] = p
	}
	p.Arm(s.debounce)
}

// saveCourseNow cancels any pending save for courseID and queues its
// current state.
func (s *Store) saveCourseNow(courseID string) {
	if p, ok := s.pending[courseID]; ok {
		p.Cancel()
	}
	cp, ok := s.state.Courses[courseID]
	if !ok {
		return
	}
	saved := cp.Clone()
	s.enqueue("save_course", courseID, func(ctx context.Context, userID string) error {
		return s.persist.SaveCourse(ctx, userID, saved)
	})
}

// completeIfAllMastered completes cp once every module of courseID is in
// its completed set, so the derived status and the tier gate agree. Reports
// whether it did.
func (s *Store) completeIfAllMastered(courseID string, cp *domain.CourseProgress) bool {
	total := s.cat.ModuleCount(courseID)
	if cp.IsCompleted() || total == 0 || len(progress.MasteredInCourse(s.cat, cp.CompletedModules, courseID)) < total {
		return false
	}
	s.markCompleted(courseID, cp)
	return true
}

// markCompleted moves cp to completed and saves it immediately.
func (s *Store) markCompleted(courseID string, cp *domain.CourseProgress) {
	cp.AdvanceStatus(domain.CourseCompleted)
	s.totalCompleted++
	s.saveCourseNow(courseID)
	s.checkProgramCompletion()
}

// checkProgramCompletion records program completion on its false->true edge.
func (s *Store) checkProgramCompletion() {
	if s.state.Program.AllCoursesCompleted {
		return
	}
	if !progress.IsProgramComplete(s.cat, s.state.Courses) {
		return
	}
	now := s.now()
	s.state.Program.MarkCompleted(now)
	s.log.Info("program completed", "user_id", s.userID)
	s.enqueue("save_program_completion", "", func(ctx context.Context, userID string) error {
		return s.persist.SaveProgramCompletion(ctx, userID, now)
	})
}

func (s *Store) enqueue(op, entity string, fn func(ctx context.Context, userID string) error) {
	if s.userID == "" || s.persist == nil || s.closed {
		return
	}
	userID := s.userID
	s.queue = append(s.queue, writeJob{
		op:     op,
		entity: entity,
		userID: userID,
		run:    func(ctx context.Context) error { return fn(ctx, userID) },
	})
	if !s.draining {
		s.draining = true
		go s.drain()
	}
}

// drain applies queued writes in order. Runs without s.mu held while a
// write is in flight.
func (s *Store) drain() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.draining = false
			s.idle.Broadcast()
			s.mu.Unlock()
			return
		}
		job := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		if err := job.run(context.Background()); err != nil {
			s.log.Error("durable write failed",
				"op", job.op, "entity", job.entity, "user_id", job.userID, "error", err)
		}
	}
}

// flushPending fires every armed debounced save. Must be called without s.mu.
func (s *Store) flushPending() {
	s.mu.Lock()
	handles := make([]*Pending, 0, len(s.pending))
	for _, p := range s.pending {
		handles = append(handles, p)
	}
	s.mu.Unlock()

	for _, p := range handles {
		p.Flush()
	}
}
