package domain

import "maps"

// Snapshot is the complete progress state of one learner, guest or
// authenticated. Values are owned by the snapshot; use Clone before sharing.
type Snapshot struct {
	Courses        map[string]*CourseProgress
	Modules        map[string]*ModuleProgress
	BypassAttempts map[int]bool
	Program        ProgramProgress
}

// NewSnapshot returns an empty snapshot with all maps allocated.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Courses:        map[string]*CourseProgress{},
		Modules:        map[string]*ModuleProgress{},
		BypassAttempts: map[int]bool{},
	}
}

// IsEmpty reports whether the snapshot holds no learner activity worth
// keeping: every course is trivial, no module is mastered and no bypass was
// attempted.
func (s *Snapshot) IsEmpty() bool {
	if s == nil {
		return true
	}
	for _, c := range s.Courses {
		if !c.IsTrivial() {
			return false
		}
	}
	for _, m := range s.Modules {
		if m != nil && m.Mastered {
			return false
		}
	}
	for _, attempted := range s.BypassAttempts {
		if attempted {
			return false
		}
	}
	return !s.Program.AllCoursesCompleted
}

// Clone returns a deep copy. A nil snapshot clones to an empty one.
func (s *Snapshot) Clone() *Snapshot {
	out := NewSnapshot()
	if s == nil {
		return out
	}
	for id, c := range s.Courses {
		out.Courses[id] = c.Clone()
	}
	for id, m := range s.Modules {
		if m == nil {
			continue
		}
		cp := *m
		if m.MasteredAt != nil {
			t := *m.MasteredAt
			cp.MasteredAt = &t
		}
		out.Modules[id] = &cp
	}
	out.BypassAttempts = maps.Clone(s.BypassAttempts)
	if out.BypassAttempts == nil {
		out.BypassAttempts = map[int]bool{}
	}
	out.Program = s.Program
	if s.Program.CompletedAt != nil {
		t := *s.Program.CompletedAt
		out.Program.CompletedAt = &t
	}
	return out
}

// MasteredModuleIDs returns the ids of all mastered modules.
func (s *Snapshot) MasteredModuleIDs() []string {
	var ids []string
	for id, m := range s.Modules {
		if m != nil && m.Mastered {
			ids = append(ids, id)
		}
	}
	return ids
}
