package catalog

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateSchema checks the catalog schema before conversion.
// Returns a slice of all validation errors found.
func ValidateSchema(schema *Schema) []error {
	var errs []error

	if err := validate.Struct(schema); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				errs = append(errs, fmt.Errorf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
		} else {
			errs = append(errs, err)
		}
	}

	errs = append(errs, validateIdentifiers(schema.Courses)...)
	errs = append(errs, validatePositions(schema.Courses)...)
	errs = append(errs, validateTiers(schema.Courses)...)

	return errs
}

func validateIdentifiers(courses []CourseSchema) []error {
	var errs []error
	courseIDs := make(map[string]bool)
	moduleIDs := make(map[string]string)

	for _, c := range courses {
		if c.ID == "" {
			continue
		}
		if courseIDs[c.ID] {
			errs = append(errs, fmt.Errorf("course %q: duplicate id", c.ID))
		}
		courseIDs[c.ID] = true

		for _, m := range c.Modules {
			if m.ID == "" {
				continue
			}
			if owner, ok := moduleIDs[m.ID]; ok {
				errs = append(errs, fmt.Errorf("module %q: duplicate id (already in course %q)", m.ID, owner))
				continue
			}
			moduleIDs[m.ID] = c.ID
		}
	}

	for id := range moduleIDs {
		if courseIDs[id] {
			errs = append(errs, fmt.Errorf("module %q: id collides with a course id", id))
		}
	}
	return errs
}

// validatePositions requires each course's module positions to form 1..N.
func validatePositions(courses []CourseSchema) []error {
	var errs []error
	for _, c := range courses {
		positions := make([]int, 0, len(c.Modules))
		for _, m := range c.Modules {
			positions = append(positions, m.Position)
		}
		sort.Ints(positions)
		for i, p := range positions {
			if p != i+1 {
				errs = append(errs, fmt.Errorf("course %q: module positions must be contiguous from 1, found %v", c.ID, positions))
				break
			}
		}
	}
	return errs
}

// validateTiers requires the set of tier numbers to be contiguous from 1.
func validateTiers(courses []CourseSchema) []error {
	seen := make(map[int]bool)
	maxTier := 0
	for _, c := range courses {
		if c.Tier < 1 {
			continue
		}
		seen[c.Tier] = true
		if c.Tier > maxTier {
			maxTier = c.Tier
		}
	}

	var errs []error
	for t := 1; t <= maxTier; t++ {
		if !seen[t] {
			errs = append(errs, fmt.Errorf("tier %d has no courses (tiers must be contiguous from 1)", t))
		}
	}
	return errs
}
