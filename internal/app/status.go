package app

import (
	"time"

	"github.com/alexanderramin/learnpath/internal/catalog"
	"github.com/alexanderramin/learnpath/internal/domain"
	"github.com/alexanderramin/learnpath/internal/gate"
)

// ProgressReader is the read side of the progress store.
type ProgressReader interface {
	UserID() string
	CoursePercent(courseID string) int
	ProgramPercent() int
	CompletedCourseIDs() []string
	CourseStatus(courseID string) domain.CourseStatus
	IsModuleMastered(moduleID string) bool
	Course(courseID string) (*domain.CourseProgress, bool)
	BypassAttempted(tier int) bool
	Program() domain.ProgramProgress
	TotalCompleted() int
}

type ModuleView struct {
	ModuleID string
	Label    string
	Title    string
	Type     domain.ModuleType
	Done     bool
	Mastered bool
}

type CourseView struct {
	CourseID string
	Title    string
	Percent  int
	Status   domain.CourseStatus
	Modules  []ModuleView
}

type TierView struct {
	Number          int
	Unlocked        bool
	BypassAttempted bool
	Courses         []CourseView
}

type ProgressOverview struct {
	UserID          string
	ProgramPercent  int
	ProgramComplete bool
	CompletedAt     *time.Time
	TotalCompleted  int
	TotalCourses    int
	Tiers           []TierView
}

// BuildOverview assembles the per-tier progress view of r.
func BuildOverview(cat catalog.Provider, r ProgressReader, g *gate.Gate) ProgressOverview {
	completed := r.CompletedCourseIDs()
	program := r.Program()

	ov := ProgressOverview{
		UserID:          r.UserID(),
		ProgramPercent:  r.ProgramPercent(),
		ProgramComplete: program.AllCoursesCompleted,
		CompletedAt:     program.CompletedAt,
		TotalCompleted:  r.TotalCompleted(),
		TotalCourses:    len(cat.CourseIDs()),
	}

	for _, tier := range cat.Tiers() {
		tv := TierView{
			Number:          tier.Number,
			Unlocked:        g.IsTierUnlocked(tier.Number, completed),
			BypassAttempted: r.BypassAttempted(tier.Number),
		}
		for _, courseID := range tier.CourseIDs {
			tv.Courses = append(tv.Courses, buildCourseView(cat, r, courseID))
		}
		ov.Tiers = append(ov.Tiers, tv)
	}
	return ov
}

func buildCourseView(cat catalog.Provider, r ProgressReader, courseID string) CourseView {
	course, _ := cat.Course(courseID)
	cv := CourseView{
		CourseID: courseID,
		Title:    course.Title,
		Percent:  r.CoursePercent(courseID),
		Status:   r.CourseStatus(courseID),
	}
	cp, _ := r.Course(courseID)
	for _, def := range cat.Modules(courseID) {
		cv.Modules = append(cv.Modules, ModuleView{
			ModuleID: def.ID,
			Label:    catalog.SectionLabel(def),
			Title:    def.Title,
			Type:     def.Type,
			Done:     cp != nil && cp.HasModule(def.ID),
			Mastered: r.IsModuleMastered(def.ID),
		})
	}
	return cv
}
