// Package catalog holds the static course and module definitions that all
// progress math is computed against.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/alexanderramin/learnpath/internal/domain"
)

//go:embed default_catalog.yaml
var defaultCatalogYAML []byte

// ErrUnknownCourse is returned when a course id is not part of the catalog.
var ErrUnknownCourse = errors.New("unknown course")

// sectionPrefix is the legacy label prefix for a module position.
const sectionPrefix = "section-"

// Provider is the read-only catalog view consumed by progress computation,
// the progress store and the tier gate.
type Provider interface {
	// CourseIDs returns the fixed course-id set in catalog order.
	CourseIDs() []string
	Course(courseID string) (Course, bool)
	Modules(courseID string) []domain.ModuleDefinition
	ModuleCount(courseID string) int
	Module(moduleID string) (domain.ModuleDefinition, bool)
	Tiers() []Tier
}

// Course is the static description of a course.
type Course struct {
	ID    string
	Title string
	Tier  int
}

// Tier groups courses that gate the next tier.
type Tier struct {
	Number    int
	CourseIDs []string
}

// Catalog is the in-memory Provider built from a validated Schema.
type Catalog struct {
	courseIDs []string
	courses   map[string]Course
	modules   map[string][]domain.ModuleDefinition
	byModule  map[string]domain.ModuleDefinition
	tiers     []Tier
}

var _ Provider = (*Catalog)(nil)

// New validates schema and builds a Catalog from it.
func New(schema *Schema) (*Catalog, error) {
	if errs := ValidateSchema(schema); len(errs) > 0 {
		return nil, fmt.Errorf("invalid catalog: %w", errors.Join(errs...))
	}

	c := &Catalog{
		courses:  make(map[string]Course, len(schema.Courses)),
		modules:  make(map[string][]domain.ModuleDefinition, len(schema.Courses)),
		byModule: make(map[string]domain.ModuleDefinition),
	}

	tierCourses := make(map[int][]string)
	for _, cs := range schema.Courses {
		c.courseIDs = append(c.courseIDs, cs.ID)
		c.courses[cs.ID] = Course{ID: cs.ID, Title: cs.Title, Tier: cs.Tier}
		tierCourses[cs.Tier] = append(tierCourses[cs.Tier], cs.ID)

		defs := make([]domain.ModuleDefinition, 0, len(cs.Modules))
		for _, ms := range cs.Modules {
			def := domain.ModuleDefinition{
				ID:       ms.ID,
				CourseID: cs.ID,
				Position: ms.Position,
				Title:    ms.Title,
				Type:     domain.ModuleType(ms.Type),
			}
			defs = append(defs, def)
			c.byModule[def.ID] = def
		}
		sort.Slice(defs, func(i, j int) bool { return defs[i].Position < defs[j].Position })
		c.modules[cs.ID] = defs
	}

	numbers := make([]int, 0, len(tierCourses))
	for n := range tierCourses {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	for _, n := range numbers {
		c.tiers = append(c.tiers, Tier{Number: n, CourseIDs: tierCourses[n]})
	}

	return c, nil
}

// Default returns the embedded catalog shipped with the binary.
func Default() (*Catalog, error) {
	schema, err := ParseSchema(defaultCatalogYAML)
	if err != nil {
		return nil, err
	}
	return New(schema)
}

// Load returns the catalog at path, or the embedded default when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	schema, err := LoadSchema(path)
	if err != nil {
		return nil, fmt.Errorf("loading catalog %s: %w", path, err)
	}
	return New(schema)
}

func (c *Catalog) CourseIDs() []string {
	return slices.Clone(c.courseIDs)
}

func (c *Catalog) Course(courseID string) (Course, bool) {
	course, ok := c.courses[courseID]
	return course, ok
}

func (c *Catalog) Modules(courseID string) []domain.ModuleDefinition {
	return slices.Clone(c.modules[courseID])
}

func (c *Catalog) ModuleCount(courseID string) int {
	return len(c.modules[courseID])
}

func (c *Catalog) Module(moduleID string) (domain.ModuleDefinition, bool) {
	def, ok := c.byModule[moduleID]
	return def, ok
}

func (c *Catalog) Tiers() []Tier {
	out := make([]Tier, len(c.tiers))
	for i, t := range c.tiers {
		out[i] = Tier{Number: t.Number, CourseIDs: slices.Clone(t.CourseIDs)}
	}
	return out
}

// IsCourse reports whether id names a course in p.
func IsCourse(p Provider, id string) bool {
	_, ok := p.Course(id)
	return ok
}

// ResolveSection maps a section identifier to a module id of courseID.
// Module ids resolve to themselves; legacy "section-N" labels resolve to the
// module at position N.
func ResolveSection(p Provider, courseID, sectionID string) (string, bool) {
	if def, ok := p.Module(sectionID); ok {
		return def.ID, def.CourseID == courseID
	}
	n, ok := parseSectionLabel(sectionID)
	if !ok {
		return "", false
	}
	for _, def := range p.Modules(courseID) {
		if def.Position == n {
			return def.ID, true
		}
	}
	return "", false
}

// SectionLabel derives the legacy display label for a module.
func SectionLabel(def domain.ModuleDefinition) string {
	return sectionPrefix + strconv.Itoa(def.Position)
}

func parseSectionLabel(s string) (int, bool) {
	rest, ok := strings.CutPrefix(s, sectionPrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
