package domain

type CourseStatus string

const (
	CourseNotStarted CourseStatus = "not_started"
	CourseInProgress CourseStatus = "in_progress"
	CourseCompleted  CourseStatus = "completed"
	CourseCredited   CourseStatus = "credited"
)

// courseStatusRank orders statuses so that transitions can be checked for
// regression. Credited is absorbing.
var courseStatusRank = map[CourseStatus]int{
	CourseNotStarted: 0,
	CourseInProgress: 1,
	CourseCompleted:  2,
	CourseCredited:   3,
}

// Rank returns the ordinal of the status. Unknown values rank as not_started.
func (s CourseStatus) Rank() int {
	return courseStatusRank[s]
}

// IsTerminal reports whether the status counts as full course completion.
func (s CourseStatus) IsTerminal() bool {
	return s == CourseCompleted || s == CourseCredited
}

// ValidCourseStatuses is the canonical set of accepted course status strings.
var ValidCourseStatuses = map[string]bool{
	"not_started": true, "in_progress": true, "completed": true, "credited": true,
}

type ModuleType string

const (
	ModuleContent  ModuleType = "content"
	ModuleCFU      ModuleType = "cfu"
	ModuleWorkshop ModuleType = "workshop"
)

// ValidModuleTypes is the canonical set of accepted module type strings.
var ValidModuleTypes = map[string]bool{
	"content": true, "cfu": true, "workshop": true,
}
