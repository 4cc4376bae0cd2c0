package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/learnpath/internal/catalog"
	"github.com/alexanderramin/learnpath/internal/domain"
	"github.com/alexanderramin/learnpath/internal/logger"
	"github.com/alexanderramin/learnpath/internal/store"
	"github.com/alexanderramin/learnpath/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type reconcileEnv struct {
	rec     *Reconciler
	store   *store.Store
	durable *testutil.MemoryDurable
	logs    *observer.ObservedLogs
}

func newReconcileEnv(t *testing.T) *reconcileEnv {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.NewFromCore(core)
	durable := testutil.NewMemoryDurable()
	s := store.New(cat, durable, store.Options{SaveDebounce: time.Hour, Log: log})
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	return &reconcileEnv{
		rec:     New(s, durable, log),
		store:   s,
		durable: durable,
		logs:    logs,
	}
}

var (
	guest  = AuthState{}
	userU1 = AuthState{Authenticated: true, UserID: "u1"}
	userU2 = AuthState{Authenticated: true, UserID: "u2"}
)

func durableWith(courseID string, status domain.CourseStatus) *domain.Snapshot {
	snap := domain.NewSnapshot()
	cp := domain.NewCourseProgress(courseID)
	cp.Status = status
	snap.Courses[courseID] = cp
	return snap
}

func TestOnAuthChange_GuestNotificationsStayGuest(t *testing.T) {
	env := newReconcileEnv(t)
	ctx := context.Background()

	env.rec.OnAuthChange(ctx, guest)
	env.store.CompleteCourse("what-is-ai-101")
	env.rec.OnAuthChange(ctx, guest)

	assert.Equal(t, StateGuest, env.rec.State())
	assert.False(t, env.rec.Migrated())
	assert.Zero(t, env.durable.Calls("LoadSnapshot"))
}

// TestOnAuthChange_GuestProgressMigrates: guest progress lands in durable storage and
// stays in the store when the account is new.
func TestOnAuthChange_GuestProgressMigrates(t *testing.T) {
	env := newReconcileEnv(t)
	ctx := context.Background()

	env.rec.OnAuthChange(ctx, guest)
	env.store.InitCourse("prompt-craft-102")
	env.store.CompleteSection("prompt-craft-102", "section-1")
	env.store.CompleteSection("prompt-craft-102", "section-2")
	env.store.InitCourse("ai-ethics-103")
	env.store.MarkModuleMastered("what-is-ai-101-m1", "what-is-ai-101")
	env.store.RecordBypassAttempt(2)

	env.rec.OnAuthChange(ctx, userU1)

	assert.Equal(t, StateLoaded, env.rec.State())
	assert.True(t, env.rec.Migrated())
	assert.Equal(t, "u1", env.store.UserID())

	saved := env.durable.User("u1")
	require.Contains(t, saved.Courses, "prompt-craft-102")
	assert.Len(t, saved.Courses["prompt-craft-102"].CompletedModules, 2)
	assert.NotContains(t, saved.Courses, "ai-ethics-103", "trivial courses are not uploaded")
	assert.True(t, saved.Modules["what-is-ai-101-m1"].Mastered)
	assert.True(t, saved.BypassAttempts[2])

	assert.Equal(t, 40, env.store.CoursePercent("prompt-craft-102"))
	assert.True(t, env.store.IsModuleMastered("what-is-ai-101-m1"))
}

// TestOnAuthChange_DurableWins: existing account data replaces guest data
// and nothing is uploaded.
func TestOnAuthChange_DurableWins(t *testing.T) {
	env := newReconcileEnv(t)
	ctx := context.Background()
	env.durable.Seed("u1", durableWith("lesson-design-201", domain.CourseCompleted))

	env.store.CompleteCourse("what-is-ai-101")
	env.rec.OnAuthChange(ctx, userU1)

	assert.Equal(t, StateLoaded, env.rec.State())
	assert.Equal(t, []string{"lesson-design-201"}, env.store.CompletedCourseIDs())
	assert.Zero(t, env.durable.Calls("UpsertCourses"))
	assert.NotContains(t, env.durable.User("u1").Courses, "what-is-ai-101")
}

func TestOnAuthChange_BothEmpty(t *testing.T) {
	env := newReconcileEnv(t)
	env.rec.OnAuthChange(context.Background(), userU1)

	assert.Equal(t, StateLoaded, env.rec.State())
	assert.True(t, env.rec.Migrated())
	assert.True(t, env.store.Snapshot().IsEmpty())
	assert.Zero(t, env.durable.Calls("UpsertCourses"))
}

// TestOnAuthChange_MigratesOnlyOnce: a second sign-in only loads, even with
// fresh guest progress in between.
func TestOnAuthChange_MigratesOnlyOnce(t *testing.T) {
	env := newReconcileEnv(t)
	ctx := context.Background()

	env.store.CompleteCourse("what-is-ai-101")
	env.rec.OnAuthChange(ctx, userU1)
	require.Equal(t, 1, env.durable.Calls("UpsertCourses"))

	env.rec.OnAuthChange(ctx, guest)
	assert.Equal(t, StateGuest, env.rec.State())
	assert.True(t, env.rec.Migrated(), "sign-out keeps the flag consumed")

	env.store.CompleteCourse("prompt-craft-102")
	env.rec.OnAuthChange(ctx, userU2)

	assert.Equal(t, 1, env.durable.Calls("UpsertCourses"))
	assert.Equal(t, StateLoaded, env.rec.State())
	assert.Empty(t, env.store.CompletedCourseIDs(), "u2 has no durable progress")
	assert.Empty(t, env.durable.User("u2").Courses)
}

func TestOnAuthChange_PartialUploadFailure(t *testing.T) {
	env := newReconcileEnv(t)
	ctx := context.Background()
	env.durable.FailOn("UpsertModules", errors.New("connection reset"))

	env.store.CompleteCourse("what-is-ai-101")
	env.store.MarkModuleMastered("prompt-craft-102-m1", "prompt-craft-102")
	env.store.RecordBypassAttempt(3)
	env.rec.OnAuthChange(ctx, userU1)

	assert.Equal(t, StateLoaded, env.rec.State())
	saved := env.durable.User("u1")
	assert.Contains(t, saved.Courses, "what-is-ai-101")
	assert.True(t, saved.BypassAttempts[3])
	assert.Empty(t, saved.Modules)

	assert.Equal(t, 1, env.logs.FilterMessage("migrating module mastery").Len())
	assert.Equal(t, MigrationPartial, env.rec.Migration())
	assert.True(t, env.store.IsModuleMastered("prompt-craft-102-m1"), "memory keeps the guest data")
}

func TestOnAuthChange_ReadFailureLoadsEmpty(t *testing.T) {
	env := newReconcileEnv(t)
	ctx := context.Background()
	env.durable.FailOn("LoadSnapshot", errors.New("timeout"))

	env.store.CompleteCourse("what-is-ai-101")
	env.rec.OnAuthChange(ctx, userU1)

	assert.Equal(t, StateLoaded, env.rec.State())
	assert.True(t, env.rec.Migrated())
	assert.Equal(t, MigrationReadFailed, env.rec.Migration())
	assert.False(t, env.rec.Migration().GuestConsumed())
	assert.True(t, env.store.Snapshot().IsEmpty())
	assert.Zero(t, env.durable.Calls("UpsertCourses"))
	assert.Equal(t, 1, env.logs.FilterMessage("loading durable progress for migration").Len())
}

func TestOnAuthChange_UploadsGuestProgramCompletion(t *testing.T) {
	env := newReconcileEnv(t)
	ctx := context.Background()

	finishedAt := testutil.FixedTime.Add(-48 * time.Hour)
	snap := testutil.NewTestSnapshot(testutil.NewTestCourseProgress("what-is-ai-101", testutil.WithStatus(domain.CourseCompleted)))
	snap.Program.MarkCompleted(finishedAt)
	env.store.Adopt("", snap)

	env.rec.OnAuthChange(ctx, guest)
	env.rec.OnAuthChange(ctx, userU1)

	assert.Equal(t, MigrationUploaded, env.rec.Migration())
	assert.Equal(t, 1, env.durable.Calls("SaveProgramCompletion"))
	program := env.durable.User("u1").Program
	require.True(t, program.AllCoursesCompleted)
	require.NotNil(t, program.CompletedAt)
	assert.True(t, finishedAt.Equal(*program.CompletedAt), "the guest's completion time is kept")
}

func TestMigrationResult_GuestConsumed(t *testing.T) {
	assert.True(t, MigrationNothing.GuestConsumed())
	assert.True(t, MigrationKeptDurable.GuestConsumed())
	assert.True(t, MigrationUploaded.GuestConsumed())
	assert.False(t, MigrationNotRun.GuestConsumed())
	assert.False(t, MigrationPartial.GuestConsumed())
	assert.False(t, MigrationReadFailed.GuestConsumed())
}

func TestOnAuthChange_SameUserIsNoop(t *testing.T) {
	env := newReconcileEnv(t)
	ctx := context.Background()

	env.rec.OnAuthChange(ctx, userU1)
	env.store.CompleteCourse("what-is-ai-101")
	env.rec.OnAuthChange(ctx, userU1)

	assert.Equal(t, 1, env.durable.Calls("LoadSnapshot"))
	assert.Equal(t, []string{"what-is-ai-101"}, env.store.CompletedCourseIDs())
}

func TestOnAuthChange_UserSwitchReloads(t *testing.T) {
	env := newReconcileEnv(t)
	ctx := context.Background()
	env.durable.Seed("u2", durableWith("ai-ethics-103", domain.CourseCredited))

	env.rec.OnAuthChange(ctx, userU1)
	env.store.InitCourse("what-is-ai-101")
	env.store.CompleteSection("what-is-ai-101", "section-1")
	env.rec.OnAuthChange(ctx, userU2)

	assert.Equal(t, "u2", env.store.UserID())
	assert.Equal(t, []string{"ai-ethics-103"}, env.store.CompletedCourseIDs())
	require.Contains(t, env.durable.User("u1").Courses, "what-is-ai-101", "u1's pending save was flushed")
}

func TestOnAuthChange_SignOutFlushesAndResets(t *testing.T) {
	env := newReconcileEnv(t)
	ctx := context.Background()

	env.rec.OnAuthChange(ctx, userU1)
	env.store.InitCourse("what-is-ai-101")
	env.store.CompleteSection("what-is-ai-101", "section-1")
	env.rec.OnAuthChange(ctx, guest)

	assert.Equal(t, StateGuest, env.rec.State())
	assert.Equal(t, "", env.store.UserID())
	assert.True(t, env.store.Snapshot().IsEmpty())

	saved := env.durable.User("u1").Courses["what-is-ai-101"]
	require.NotNil(t, saved)
	assert.Equal(t, []string{"what-is-ai-101-m1"}, saved.CompletedModules)
}

func TestOnAuthChange_ConcurrentSignInMigratesOnce(t *testing.T) {
	env := newReconcileEnv(t)
	ctx := context.Background()
	env.store.CompleteCourse("what-is-ai-101")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			env.rec.OnAuthChange(ctx, userU1)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, env.durable.Calls("LoadSnapshot"))
	assert.Equal(t, 1, env.durable.Calls("UpsertCourses"))
	assert.Equal(t, StateLoaded, env.rec.State())
}

func TestMigratable_FiltersAndOrders(t *testing.T) {
	snap := domain.NewSnapshot()
	snap.Courses["b"] = &domain.CourseProgress{CourseID: "b", Status: domain.CourseInProgress}
	snap.Courses["a"] = &domain.CourseProgress{CourseID: "a", CompletedModules: []string{"a-m1"}}
	snap.Courses["z"] = domain.NewCourseProgress("z")
	snap.Modules["m2"] = &domain.ModuleProgress{ModuleID: "m2", Mastered: true}
	snap.Modules["m1"] = &domain.ModuleProgress{ModuleID: "m1"}
	snap.BypassAttempts[3] = true
	snap.BypassAttempts[2] = false
	snap.BypassAttempts[1] = true

	courses, modules, tiers := migratable(snap)

	require.Len(t, courses, 2)
	assert.Equal(t, "a", courses[0].CourseID)
	assert.Equal(t, "b", courses[1].CourseID)
	require.Len(t, modules, 1)
	assert.Equal(t, "m2", modules[0].ModuleID)
	assert.Equal(t, []int{1, 3}, tiers)
}
