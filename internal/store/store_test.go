package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/learnpath/internal/catalog"
	"github.com/alexanderramin/learnpath/internal/domain"
	"github.com/alexanderramin/learnpath/internal/logger"
	"github.com/alexanderramin/learnpath/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type storeEnv struct {
	store   *Store
	cat     *catalog.Catalog
	durable *testutil.MemoryDurable
	clock   *testClock
	logs    *observer.ObservedLogs
}

func newStoreEnv(t *testing.T, debounce time.Duration) *storeEnv {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	env := &storeEnv{
		cat:     cat,
		durable: testutil.NewMemoryDurable(),
		clock:   newTestClock(),
		logs:    logs,
	}
	env.store = New(cat, env.durable, Options{
		SaveDebounce: debounce,
		Now:          env.clock.Now,
		Log:          logger.NewFromCore(core),
	})
	return env
}

func (e *storeEnv) flush(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, e.store.Flush(ctx))
}

// completedSnapshot returns a snapshot with every catalog course completed
// except the ones named in skip.
func completedSnapshot(cat *catalog.Catalog, skip ...string) *domain.Snapshot {
	snap := domain.NewSnapshot()
	skipped := map[string]bool{}
	for _, id := range skip {
		skipped[id] = true
	}
	for _, id := range cat.CourseIDs() {
		if skipped[id] {
			continue
		}
		cp := domain.NewCourseProgress(id)
		cp.Status = domain.CourseCompleted
		snap.Courses[id] = cp
	}
	return snap
}

func TestInitCourse_Idempotent(t *testing.T) {
	env := newStoreEnv(t, time.Hour)
	s := env.store

	s.InitCourse("prompt-craft-102")
	s.CompleteSection("prompt-craft-102", "prompt-craft-102-m1")
	before, ok := s.Course("prompt-craft-102")
	require.True(t, ok)

	s.InitCourse("prompt-craft-102")
	s.InitCourse("prompt-craft-102")

	after, _ := s.Course("prompt-craft-102")
	assert.Equal(t, before, after)
	assert.Equal(t, domain.CourseInProgress, after.Status)
}

func TestInitCourse_UnknownCourseIgnored(t *testing.T) {
	env := newStoreEnv(t, time.Hour)
	env.store.InitCourse("no-such-course")

	_, ok := env.store.Course("no-such-course")
	assert.False(t, ok)
}

func TestCompleteSection_RequiresInitializedCourse(t *testing.T) {
	env := newStoreEnv(t, time.Hour)
	env.store.CompleteSection("prompt-craft-102", "prompt-craft-102-m1")

	_, ok := env.store.Course("prompt-craft-102")
	assert.False(t, ok)
}

func TestCompleteSection_ThreeOfFiveSections(t *testing.T) {
	env := newStoreEnv(t, time.Hour)
	s := env.store

	s.InitCourse("prompt-craft-102")
	s.CompleteSection("prompt-craft-102", "prompt-craft-102-m1")
	s.CompleteSection("prompt-craft-102", "section-2")
	s.CompleteSection("prompt-craft-102", "prompt-craft-102-m3")

	assert.Equal(t, 60, s.CoursePercent("prompt-craft-102"))
	assert.Equal(t, domain.CourseInProgress, s.CourseStatus("prompt-craft-102"))

	cp, _ := s.Course("prompt-craft-102")
	assert.Equal(t, []string{"prompt-craft-102-m1", "prompt-craft-102-m2", "prompt-craft-102-m3"}, cp.CompletedModules)
}

func TestCompleteSection_IgnoresDuplicatesAndForeignModules(t *testing.T) {
	env := newStoreEnv(t, time.Hour)
	s := env.store

	s.InitCourse("what-is-ai-101")
	s.CompleteSection("what-is-ai-101", "what-is-ai-101-m1")
	s.CompleteSection("what-is-ai-101", "what-is-ai-101-m1")
	s.CompleteSection("what-is-ai-101", "section-1")
	s.CompleteSection("what-is-ai-101", "prompt-craft-102-m1")
	s.CompleteSection("what-is-ai-101", "section-99")

	cp, _ := s.Course("what-is-ai-101")
	assert.Equal(t, []string{"what-is-ai-101-m1"}, cp.CompletedModules)
	assert.Equal(t, 25, s.CoursePercent("what-is-ai-101"))
}

func TestAnswerCFU_LastWriteWins(t *testing.T) {
	env := newStoreEnv(t, time.Hour)
	s := env.store

	s.AnswerCFU("ai-ethics-103", "ai-ethics-103-m3", "b", false)
	env.clock.Advance(time.Minute)
	s.AnswerCFU("ai-ethics-103", "ai-ethics-103-m3", "c", true)

	cp, ok := s.Course("ai-ethics-103")
	require.True(t, ok, "answering creates the course record")
	require.Len(t, cp.CFUAnswers, 1)
	ans := cp.CFUAnswers["ai-ethics-103-m3"]
	assert.Equal(t, "c", ans.SelectedAnswer)
	assert.True(t, ans.Correct)
	assert.Equal(t, env.clock.Now(), ans.AnsweredAt)
	assert.Equal(t, domain.CourseInProgress, cp.Status)
}

func TestCompleteCourse_CountsOnce(t *testing.T) {
	env := newStoreEnv(t, time.Hour)
	s := env.store

	s.CompleteCourse("what-is-ai-101")
	s.CompleteCourse("what-is-ai-101")

	assert.Equal(t, 1, s.TotalCompleted())
	assert.Equal(t, 100, s.CoursePercent("what-is-ai-101"))
	assert.Equal(t, []string{"what-is-ai-101"}, s.CompletedCourseIDs())
}

func TestMarkCompleteViaQuiz_CreditedIsAbsorbing(t *testing.T) {
	env := newStoreEnv(t, time.Hour)
	s := env.store

	s.MarkCompleteViaQuiz("lesson-design-201")
	s.CompleteCourse("lesson-design-201")
	s.CompleteSection("lesson-design-201", "lesson-design-201-m1")
	s.AnswerCFU("lesson-design-201", "lesson-design-201-m3", "a", true)
	s.MarkModuleMastered("lesson-design-201-m2", "lesson-design-201")

	assert.Equal(t, domain.CourseCredited, s.CourseStatus("lesson-design-201"))
	assert.Equal(t, 100, s.CoursePercent("lesson-design-201"))
	assert.Equal(t, 1, s.TotalCompleted())
}

func TestMarkCompleteViaQuiz_UpgradesCompletedWithoutRecounting(t *testing.T) {
	env := newStoreEnv(t, time.Hour)
	s := env.store

	s.CompleteCourse("what-is-ai-101")
	s.MarkCompleteViaQuiz("what-is-ai-101")

	assert.Equal(t, domain.CourseCredited, s.CourseStatus("what-is-ai-101"))
	assert.Equal(t, 1, s.TotalCompleted())
}

func TestMarkCompleteViaQuiz_IgnoresNonCourseIDs(t *testing.T) {
	env := newStoreEnv(t, time.Hour)
	s := env.store

	s.MarkCompleteViaQuiz("what-is-ai-101-m1")
	s.MarkCompleteViaQuiz("nonsense")

	assert.Empty(t, s.CompletedCourseIDs())
	assert.Equal(t, 2, env.logs.FilterMessage("ignoring quiz credit for non-course id").Len())
}

func TestMarkModuleMastered_MonotonicAndFeedsPercent(t *testing.T) {
	env := newStoreEnv(t, time.Hour)
	s := env.store

	s.MarkModuleMastered("classroom-policy-204-m1", "classroom-policy-204")
	first := env.clock.Now()
	env.clock.Advance(time.Hour)
	s.MarkModuleMastered("classroom-policy-204-m1", "classroom-policy-204")

	assert.True(t, s.IsModuleMastered("classroom-policy-204-m1"))
	assert.Equal(t, 33, s.CoursePercent("classroom-policy-204"))
	assert.Equal(t, domain.CourseInProgress, s.CourseStatus("classroom-policy-204"))

	snap := s.Snapshot()
	require.NotNil(t, snap.Modules["classroom-policy-204-m1"].MasteredAt)
	assert.Equal(t, first, *snap.Modules["classroom-policy-204-m1"].MasteredAt)
}

func TestMarkModuleMastered_AllModulesDeriveCompleted(t *testing.T) {
	env := newStoreEnv(t, time.Hour)
	s := env.store

	for _, def := range env.cat.Modules("classroom-policy-204") {
		s.MarkModuleMastered(def.ID, "classroom-policy-204")
	}

	assert.Equal(t, domain.CourseCompleted, s.CourseStatus("classroom-policy-204"))
	assert.Equal(t, 100, s.CoursePercent("classroom-policy-204"))
	assert.Equal(t, []string{"classroom-policy-204"}, s.CompletedCourseIDs(), "the gate sees the derived completion")
	assert.Equal(t, 1, s.TotalCompleted())
}

func TestCompleteSection_LastSectionCompletesCourse(t *testing.T) {
	env := newStoreEnv(t, time.Hour)
	s := env.store
	s.Adopt("u1", nil)

	s.InitCourse("what-is-ai-101")
	for _, label := range []string{"section-1", "section-2", "section-3", "section-4"} {
		s.CompleteSection("what-is-ai-101", label)
	}
	env.flush(t)

	cp, ok := s.Course("what-is-ai-101")
	require.True(t, ok)
	assert.Equal(t, domain.CourseCompleted, cp.Status)
	assert.Equal(t, []string{"what-is-ai-101"}, s.CompletedCourseIDs())
	assert.Equal(t, domain.CourseCompleted, env.durable.User("u1").Courses["what-is-ai-101"].Status)

	s.CompleteCourse("what-is-ai-101")
	assert.Equal(t, 1, s.TotalCompleted(), "an explicit completion afterwards is a no-op")
}

func TestMarkModuleMastered_RejectsForeignCourse(t *testing.T) {
	env := newStoreEnv(t, time.Hour)
	s := env.store

	s.MarkModuleMastered("classroom-policy-204-m1", "what-is-ai-101")

	assert.False(t, s.IsModuleMastered("classroom-policy-204-m1"))
	_, ok := s.Course("what-is-ai-101")
	assert.False(t, ok)
}

func TestRecordBypassAttempt(t *testing.T) {
	env := newStoreEnv(t, time.Hour)
	s := env.store
	s.Adopt("u1", nil)

	s.RecordBypassAttempt(0)
	s.RecordBypassAttempt(2)
	env.flush(t)

	assert.False(t, s.BypassAttempted(0))
	assert.True(t, s.BypassAttempted(2))
	assert.True(t, env.durable.User("u1").BypassAttempts[2])
	assert.Equal(t, 1, env.durable.Calls("SaveBypassAttempt"))
}

func TestGuestStore_NeverWritesDurably(t *testing.T) {
	env := newStoreEnv(t, time.Millisecond)
	s := env.store

	s.InitCourse("what-is-ai-101")
	s.CompleteSection("what-is-ai-101", "section-1")
	s.CompleteCourse("prompt-craft-102")
	s.MarkModuleMastered("ai-ethics-103-m1", "ai-ethics-103")
	s.RecordBypassAttempt(1)
	time.Sleep(10 * time.Millisecond)
	env.flush(t)

	for _, method := range []string{"SaveCourse", "SaveModule", "SaveBypassAttempt", "SaveProgramCompletion"} {
		assert.Zero(t, env.durable.Calls(method), method)
	}
}

func TestDebounce_CoalescesIntoOneSave(t *testing.T) {
	env := newStoreEnv(t, time.Hour)
	s := env.store
	s.Adopt("u1", nil)

	s.InitCourse("prompt-craft-102")
	s.CompleteSection("prompt-craft-102", "section-1")
	s.CompleteSection("prompt-craft-102", "section-2")
	s.AnswerCFU("prompt-craft-102", "prompt-craft-102-m3", "a", true)
	s.CompleteSection("prompt-craft-102", "section-3")

	assert.Zero(t, env.durable.Calls("SaveCourse"), "nothing written inside the window")

	env.flush(t)

	assert.Equal(t, 1, env.durable.Calls("SaveCourse"))
	saved := env.durable.User("u1").Courses["prompt-craft-102"]
	require.NotNil(t, saved)
	assert.Len(t, saved.CompletedModules, 3)
	assert.Contains(t, saved.CFUAnswers, "prompt-craft-102-m3")
}

func TestDebounce_FiresAfterWindow(t *testing.T) {
	env := newStoreEnv(t, 10*time.Millisecond)
	s := env.store
	s.Adopt("u1", nil)

	s.InitCourse("what-is-ai-101")
	s.CompleteSection("what-is-ai-101", "section-1")
	s.CompleteSection("what-is-ai-101", "section-2")

	require.Eventually(t, func() bool {
		return env.durable.Calls("SaveCourse") == 1
	}, time.Second, 5*time.Millisecond)
	assert.Len(t, env.durable.User("u1").Courses["what-is-ai-101"].CompletedModules, 2)
}

func TestCompleteCourse_ReplacesPendingSave(t *testing.T) {
	env := newStoreEnv(t, time.Hour)
	s := env.store
	s.Adopt("u1", nil)

	s.InitCourse("what-is-ai-101")
	s.CompleteSection("what-is-ai-101", "section-1")
	s.CompleteCourse("what-is-ai-101")
	env.flush(t)

	assert.Equal(t, 1, env.durable.Calls("SaveCourse"))
	saved := env.durable.User("u1").Courses["what-is-ai-101"]
	assert.Equal(t, domain.CourseCompleted, saved.Status)
	assert.Equal(t, []string{"what-is-ai-101-m1"}, saved.CompletedModules)
}

func TestProgramCompletion_LastCourseCompletesProgram(t *testing.T) {
	env := newStoreEnv(t, time.Hour)
	s := env.store
	s.Adopt("u1", completedSnapshot(env.cat, "leading-change-303"))

	assert.False(t, s.Program().AllCoursesCompleted)
	assert.Equal(t, 9, s.TotalCompleted())
	assert.Equal(t, 90, s.ProgramPercent())

	s.CompleteCourse("leading-change-303")
	completedAt := env.clock.Now()

	env.clock.Advance(time.Hour)
	s.MarkCompleteViaQuiz("leading-change-303")
	s.CompleteCourse("leading-change-303")
	env.flush(t)

	program := s.Program()
	assert.True(t, program.AllCoursesCompleted)
	require.NotNil(t, program.CompletedAt)
	assert.Equal(t, completedAt, *program.CompletedAt)
	assert.Equal(t, 100, s.ProgramPercent())
	assert.Equal(t, 1, env.durable.Calls("SaveProgramCompletion"))

	durable := env.durable.User("u1").Program
	require.NotNil(t, durable.CompletedAt)
	assert.Equal(t, completedAt, *durable.CompletedAt)
}

func TestAdopt_AlreadyCompleteProgramWritesMarkerOnce(t *testing.T) {
	env := newStoreEnv(t, time.Hour)
	s := env.store

	snap := completedSnapshot(env.cat)
	s.Adopt("u1", snap)
	env.flush(t)
	assert.True(t, s.Program().AllCoursesCompleted)
	assert.Equal(t, 1, env.durable.Calls("SaveProgramCompletion"))

	snap.Program.MarkCompleted(env.clock.Now())
	s.Adopt("u1", snap)
	env.flush(t)
	assert.Equal(t, 1, env.durable.Calls("SaveProgramCompletion"))
}

func TestDurableFailure_KeepsMemoryAndLogs(t *testing.T) {
	env := newStoreEnv(t, time.Hour)
	s := env.store
	s.Adopt("u1", nil)
	env.durable.FailOn("SaveCourse", errors.New("disk full"))

	s.CompleteCourse("what-is-ai-101")
	env.flush(t)

	assert.Equal(t, domain.CourseCompleted, s.CourseStatus("what-is-ai-101"))
	assert.Equal(t, 1, s.TotalCompleted())

	failures := env.logs.FilterMessage("durable write failed").All()
	require.Len(t, failures, 1)
	assert.Equal(t, "save_course", failures[0].ContextMap()["op"])
	assert.Equal(t, "u1", failures[0].ContextMap()["user_id"])
}

func TestReset_FlushesPreviousOwner(t *testing.T) {
	env := newStoreEnv(t, time.Hour)
	s := env.store
	s.Adopt("u1", nil)

	s.InitCourse("what-is-ai-101")
	s.CompleteSection("what-is-ai-101", "section-1")
	s.Reset()
	env.flush(t)

	assert.Equal(t, "", s.UserID())
	assert.True(t, s.Snapshot().IsEmpty())
	require.NotNil(t, env.durable.User("u1").Courses["what-is-ai-101"])
}

func TestClose_StopsDurableWrites(t *testing.T) {
	env := newStoreEnv(t, time.Hour)
	s := env.store
	s.Adopt("u1", nil)

	require.NoError(t, s.Close(context.Background()))
	s.CompleteCourse("what-is-ai-101")
	env.flush(t)

	assert.Equal(t, 1, s.TotalCompleted())
	assert.Zero(t, env.durable.Calls("SaveCourse"))
}

func TestAccessors_ReturnCopies(t *testing.T) {
	env := newStoreEnv(t, time.Hour)
	s := env.store

	s.InitCourse("what-is-ai-101")
	cp, _ := s.Course("what-is-ai-101")
	cp.Status = domain.CourseCredited
	cp.CompletedModules = append(cp.CompletedModules, "x")

	snap := s.Snapshot()
	snap.Courses["what-is-ai-101"].Status = domain.CourseCompleted

	assert.Equal(t, domain.CourseNotStarted, s.CourseStatus("what-is-ai-101"))
	assert.Zero(t, s.CoursePercent("what-is-ai-101"))
}

func TestConcurrentCommands(t *testing.T) {
	env := newStoreEnv(t, time.Millisecond)
	s := env.store
	s.Adopt("u1", nil)

	var wg sync.WaitGroup
	for _, id := range env.cat.CourseIDs() {
		wg.Add(1)
		go func(courseID string) {
			defer wg.Done()
			s.InitCourse(courseID)
			for _, def := range env.cat.Modules(courseID) {
				s.CompleteSection(courseID, def.ID)
			}
			s.CompleteCourse(courseID)
		}(id)
	}
	wg.Wait()
	env.flush(t)

	assert.Equal(t, len(env.cat.CourseIDs()), s.TotalCompleted())
	assert.True(t, s.Program().AllCoursesCompleted)
	assert.Equal(t, 1, env.durable.Calls("SaveProgramCompletion"))
	for _, id := range env.cat.CourseIDs() {
		assert.Equal(t, domain.CourseCompleted, env.durable.User("u1").Courses[id].Status, id)
	}
}
