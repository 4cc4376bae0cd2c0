// Package progress computes course and program completion from progress
// records. Every function is pure and takes the catalog explicitly.
package progress

import (
	"math"

	"github.com/alexanderramin/learnpath/internal/catalog"
	"github.com/alexanderramin/learnpath/internal/domain"
)

// CoursePercent returns the completion percent of a course in [0,100].
// Priority: nil record → 0; credited or completed → 100; otherwise
// round(100 × mastered / total), with total 0 → 0.
func CoursePercent(cat catalog.Provider, cp *domain.CourseProgress, courseID string) int {
	if cp == nil {
		return 0
	}
	if cp.Status == domain.CourseCredited || cp.IsCompleted() {
		return 100
	}
	total := cat.ModuleCount(courseID)
	if total == 0 {
		return 0
	}
	mastered := len(MasteredInCourse(cat, cp.CompletedModules, courseID))
	return clampPercent(roundPercent(float64(mastered) * 100 / float64(total)))
}

// ProgramPercent returns the unweighted mean of CoursePercent over the
// catalog's fixed course-id set. Courses without a record count as 0.
func ProgramPercent(cat catalog.Provider, courses map[string]*domain.CourseProgress) int {
	ids := cat.CourseIDs()
	if len(ids) == 0 {
		return 0
	}
	sum := 0
	for _, id := range ids {
		sum += CoursePercent(cat, courses[id], id)
	}
	return clampPercent(roundPercent(float64(sum) / float64(len(ids))))
}

// DetermineStatus derives a course status. Credited is absorbing; explicit
// completion wins next; then all modules mastered counts as completed.
func DetermineStatus(masteredModuleIDs []string, totalModules int, isCompleted bool, current domain.CourseStatus) domain.CourseStatus {
	switch {
	case current == domain.CourseCredited:
		return domain.CourseCredited
	case isCompleted:
		return domain.CourseCompleted
	case totalModules > 0 && len(masteredModuleIDs) >= totalModules:
		return domain.CourseCompleted
	case len(masteredModuleIDs) > 0:
		return domain.CourseInProgress
	default:
		return domain.CourseNotStarted
	}
}

// IsProgramComplete reports whether every course in the fixed set is
// completed or credited. An empty catalog is never complete.
func IsProgramComplete(cat catalog.Provider, courses map[string]*domain.CourseProgress) bool {
	ids := cat.CourseIDs()
	if len(ids) == 0 {
		return false
	}
	for _, id := range ids {
		if !courses[id].IsCompleted() {
			return false
		}
	}
	return true
}

// CompletedCourseIDs returns, in catalog order, the courses that are
// completed or credited.
func CompletedCourseIDs(cat catalog.Provider, courses map[string]*domain.CourseProgress) []string {
	var ids []string
	for _, id := range cat.CourseIDs() {
		if courses[id].IsCompleted() {
			ids = append(ids, id)
		}
	}
	return ids
}

// MasteredInCourse filters moduleIDs down to the distinct catalog modules
// that belong to courseID, preserving first-seen order.
func MasteredInCourse(cat catalog.Provider, moduleIDs []string, courseID string) []string {
	seen := make(map[string]bool, len(moduleIDs))
	var out []string
	for _, id := range moduleIDs {
		if seen[id] {
			continue
		}
		def, ok := cat.Module(id)
		if !ok || def.CourseID != courseID {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// roundPercent rounds half away from zero.
func roundPercent(v float64) int {
	return int(math.Round(v))
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
