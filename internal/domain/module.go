package domain

import "time"

// ModuleDefinition is a static catalog entry. Position is 1-based and unique
// within its course.
type ModuleDefinition struct {
	ID       string
	CourseID string
	Position int
	Title    string
	Type     ModuleType
}

// ModuleProgress records mastery of a single module. Mastery is monotonic.
type ModuleProgress struct {
	ModuleID   string
	Mastered   bool
	MasteredAt *time.Time
}

// Master marks the module mastered at now. An already mastered module keeps
// its original timestamp; returns whether anything changed.
func (m *ModuleProgress) Master(now time.Time) bool {
	if m.Mastered {
		return false
	}
	m.Mastered = true
	m.MasteredAt = &now
	return true
}
