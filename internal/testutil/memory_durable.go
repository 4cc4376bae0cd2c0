package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/alexanderramin/learnpath/internal/domain"
)

// MemoryDurable is an in-memory stand-in for durable progress storage. It
// implements both the store's persister port and the reconciler's durable
// port, counts calls per method name, and can be told to fail any method.
//
// Upserts follow the SQLite semantics: course records merge without
// regressing, mastery is never revoked and the first program completion
// timestamp is kept.
type MemoryDurable struct {
	mu    sync.Mutex
	users map[string]*domain.Snapshot
	calls map[string]int
	fail  map[string]error
}

func NewMemoryDurable() *MemoryDurable {
	return &MemoryDurable{
		users: map[string]*domain.Snapshot{},
		calls: map[string]int{},
		fail:  map[string]error{},
	}
}

// FailOn makes every call to method return err. A nil err clears it.
func (m *MemoryDurable) FailOn(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fail, method)
		return
	}
	m.fail[method] = err
}

// Seed installs snap as the durable state of userID.
func (m *MemoryDurable) Seed(userID string, snap *domain.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[userID] = snap.Clone()
}

// User returns a copy of the durable state of userID.
func (m *MemoryDurable) User(userID string) *domain.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[userID].Clone()
}

// Calls returns how many times method was invoked, failed calls included.
func (m *MemoryDurable) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *MemoryDurable) begin(method, userID string) (*domain.Snapshot, error) {
	m.calls[method]++
	if err := m.fail[method]; err != nil {
		return nil, err
	}
	snap, ok := m.users[userID]
	if !ok {
		snap = domain.NewSnapshot()
		m.users[userID] = snap
	}
	return snap, nil
}

func (m *MemoryDurable) LoadSnapshot(_ context.Context, userID string) (*domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["LoadSnapshot"]++
	if err := m.fail["LoadSnapshot"]; err != nil {
		return nil, err
	}
	return m.users[userID].Clone(), nil
}

func (m *MemoryDurable) SaveCourse(_ context.Context, userID string, cp *domain.CourseProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, err := m.begin("SaveCourse", userID)
	if err != nil {
		return err
	}
	snap.Courses[cp.CourseID] = domain.MergeCourseProgress(snap.Courses[cp.CourseID], cp)
	return nil
}

func (m *MemoryDurable) SaveModule(_ context.Context, userID string, mp *domain.ModuleProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, err := m.begin("SaveModule", userID)
	if err != nil {
		return err
	}
	saveModule(snap, mp)
	return nil
}

func (m *MemoryDurable) SaveBypassAttempt(_ context.Context, userID string, tier int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, err := m.begin("SaveBypassAttempt", userID)
	if err != nil {
		return err
	}
	snap.BypassAttempts[tier] = true
	return nil
}

func (m *MemoryDurable) SaveProgramCompletion(_ context.Context, userID string, completedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, err := m.begin("SaveProgramCompletion", userID)
	if err != nil {
		return err
	}
	snap.Program.MarkCompleted(completedAt)
	return nil
}

func (m *MemoryDurable) UpsertCourses(_ context.Context, userID string, courses []*domain.CourseProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, err := m.begin("UpsertCourses", userID)
	if err != nil {
		return err
	}
	for _, cp := range courses {
		snap.Courses[cp.CourseID] = domain.MergeCourseProgress(snap.Courses[cp.CourseID], cp)
	}
	return nil
}

func (m *MemoryDurable) UpsertModules(_ context.Context, userID string, modules []*domain.ModuleProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, err := m.begin("UpsertModules", userID)
	if err != nil {
		return err
	}
	for _, mp := range modules {
		saveModule(snap, mp)
	}
	return nil
}

func (m *MemoryDurable) UpsertBypassAttempts(_ context.Context, userID string, tiers []int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, err := m.begin("UpsertBypassAttempts", userID)
	if err != nil {
		return err
	}
	for _, tier := range tiers {
		snap.BypassAttempts[tier] = true
	}
	return nil
}

func saveModule(snap *domain.Snapshot, mp *domain.ModuleProgress) {
	existing, ok := snap.Modules[mp.ModuleID]
	if ok && existing.Mastered {
		return
	}
	cp := *mp
	snap.Modules[mp.ModuleID] = &cp
}
