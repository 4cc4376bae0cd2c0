package domain

import (
	"slices"
	"time"
)

// CFUAnswer is the latest answer given to a check-for-understanding question.
type CFUAnswer struct {
	SelectedAnswer string
	Correct        bool
	AnsweredAt     time.Time
}

// CourseProgress is the per-learner state of one course. Status is the single
// source of truth for completion; IsCompleted is derived from it.
type CourseProgress struct {
	CourseID         string
	CompletedModules []string
	CFUAnswers       map[string]CFUAnswer
	Status           CourseStatus
	UpdatedAt        time.Time
}

// NewCourseProgress returns an empty, not-started record for courseID.
func NewCourseProgress(courseID string) *CourseProgress {
	return &CourseProgress{
		CourseID:   courseID,
		CFUAnswers: map[string]CFUAnswer{},
		Status:     CourseNotStarted,
	}
}

// IsCompleted reports whether the course is completed or credited.
func (c *CourseProgress) IsCompleted() bool {
	return c != nil && c.Status.IsTerminal()
}

// HasModule reports whether moduleID is already in the completed set.
func (c *CourseProgress) HasModule(moduleID string) bool {
	return slices.Contains(c.CompletedModules, moduleID)
}

// AddModule appends moduleID to the ordered completed set. Returns false when
// it was already present.
func (c *CourseProgress) AddModule(moduleID string) bool {
	if c.HasModule(moduleID) {
		return false
	}
	c.CompletedModules = append(c.CompletedModules, moduleID)
	return true
}

// AdvanceStatus moves the status forward to target. A lower-ranked target is
// ignored; returns whether the status changed.
func (c *CourseProgress) AdvanceStatus(target CourseStatus) bool {
	if target.Rank() <= c.Status.Rank() {
		return false
	}
	c.Status = target
	return true
}

// MergeCourseProgress folds a stored record into a copy of incoming so a
// write never loses ground: the higher-ranked status wins, completed modules
// are unioned in stored-first order, stored CFU answers survive for
// questions incoming has not answered, and the later UpdatedAt is kept.
func MergeCourseProgress(stored, incoming *CourseProgress) *CourseProgress {
	out := incoming.Clone()
	if stored == nil {
		return out
	}
	out.AdvanceStatus(stored.Status)
	merged := slices.Clone(stored.CompletedModules)
	for _, id := range out.CompletedModules {
		if !stored.HasModule(id) {
			merged = append(merged, id)
		}
	}
	out.CompletedModules = merged
	for id, a := range stored.CFUAnswers {
		if _, ok := out.CFUAnswers[id]; !ok {
			out.CFUAnswers[id] = a
		}
	}
	if stored.UpdatedAt.After(out.UpdatedAt) {
		out.UpdatedAt = stored.UpdatedAt
	}
	return out
}

// IsTrivial reports whether the record carries no learner activity at all.
func (c *CourseProgress) IsTrivial() bool {
	return c == nil || (c.Status == CourseNotStarted && len(c.CompletedModules) == 0 && len(c.CFUAnswers) == 0)
}

// Clone returns a deep copy.
func (c *CourseProgress) Clone() *CourseProgress {
	if c == nil {
		return nil
	}
	out := *c
	out.CompletedModules = slices.Clone(c.CompletedModules)
	out.CFUAnswers = make(map[string]CFUAnswer, len(c.CFUAnswers))
	for k, v := range c.CFUAnswers {
		out.CFUAnswers[k] = v
	}
	return &out
}
