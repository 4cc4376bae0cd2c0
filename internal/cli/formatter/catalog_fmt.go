package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/learnpath/internal/catalog"
)

// FormatCatalog lists every course by tier with its modules.
func FormatCatalog(cat catalog.Provider) string {
	var b strings.Builder

	for i, tier := range cat.Tiers() {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(Header(fmt.Sprintf("Tier %d", tier.Number)) + "\n")
		for _, courseID := range tier.CourseIDs {
			course, _ := cat.Course(courseID)
			b.WriteString(fmt.Sprintf("\n%s %s\n", Bold(course.Title), Dim("("+courseID+")")))

			headers := []string{"SECTION", "MODULE", "TYPE", "TITLE"}
			var rows [][]string
			for _, def := range cat.Modules(courseID) {
				rows = append(rows, []string{
					catalog.SectionLabel(def),
					Dim(def.ID),
					ModuleTypeBadge(def.Type),
					def.Title,
				})
			}
			b.WriteString(RenderTable(headers, rows))
		}
	}

	return RenderBox("Catalog", b.String())
}
