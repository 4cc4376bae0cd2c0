package domain

import "time"

// ProgramProgress is the cached "all courses completed" marker. It flips to
// true once and is never recomputed back to false.
type ProgramProgress struct {
	AllCoursesCompleted bool
	CompletedAt         *time.Time
}

// MarkCompleted sets the marker on its false->true edge only.
func (p *ProgramProgress) MarkCompleted(now time.Time) bool {
	if p.AllCoursesCompleted {
		return false
	}
	p.AllCoursesCompleted = true
	p.CompletedAt = &now
	return true
}

// BypassAttempt records that a learner tried the skip quiz for a tier.
type BypassAttempt struct {
	Tier      int
	Attempted bool
}
