// Package gate decides which curriculum tiers a learner may enter.
package gate

import (
	"github.com/alexanderramin/learnpath/internal/catalog"
)

// Gate evaluates tier unlocks against a fixed tier layout.
type Gate struct {
	tiers map[int][]string
	order []int
}

// New builds a Gate from the catalog's tiers.
func New(cat catalog.Provider) *Gate {
	g := &Gate{tiers: make(map[int][]string)}
	for _, t := range cat.Tiers() {
		g.tiers[t.Number] = t.CourseIDs
		g.order = append(g.order, t.Number)
	}
	return g
}

// IsTierUnlocked reports whether tier is open. Tier 1 is always open; tier
// N>1 opens once every course of tier N-1 is in completedCourseIDs. Tiers
// the catalog does not define are locked.
func (g *Gate) IsTierUnlocked(tier int, completedCourseIDs []string) bool {
	if tier == 1 {
		return true
	}
	if _, ok := g.tiers[tier]; !ok {
		return false
	}
	prev, ok := g.tiers[tier-1]
	if !ok {
		return false
	}
	done := make(map[string]bool, len(completedCourseIDs))
	for _, id := range completedCourseIDs {
		done[id] = true
	}
	for _, id := range prev {
		if !done[id] {
			return false
		}
	}
	return true
}

// UnlockedTiers returns the open tier numbers in ascending order.
func (g *Gate) UnlockedTiers(completedCourseIDs []string) []int {
	var out []int
	for _, n := range g.order {
		if g.IsTierUnlocked(n, completedCourseIDs) {
			out = append(out, n)
		}
	}
	return out
}

// Courses returns the course ids of tier.
func (g *Gate) Courses(tier int) []string {
	return append([]string(nil), g.tiers[tier]...)
}

// QuizCrediter grants whole-course credit from a passed bypass quiz.
type QuizCrediter interface {
	MarkCompleteViaQuiz(courseID string)
}

// OnQuizComplete credits every passed id. How the quiz was graded is the
// caller's concern.
func OnQuizComplete(c QuizCrediter, passedIDs []string) {
	for _, id := range passedIDs {
		c.MarkCompleteViaQuiz(id)
	}
}
