package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/learnpath/internal/app"
)

const courseProgressBarWidth = 10

// FormatProgress renders the learner's per-tier progress dashboard.
func FormatProgress(ov app.ProgressOverview, now time.Time) string {
	var b strings.Builder

	who := "guest"
	if ov.UserID != "" {
		who = ov.UserID
	}
	b.WriteString(fmt.Sprintf("%s %s\n", Dim("Learner:"), Bold(who)))
	b.WriteString(fmt.Sprintf("%s %s  %s\n\n",
		Dim("Program:"),
		RenderProgress(ov.ProgramPercent, 20),
		Dim(fmt.Sprintf("%d/%d courses", ov.TotalCompleted, ov.TotalCourses)),
	))

	for _, tier := range ov.Tiers {
		line := TierLabel(tier.Number, tier.Unlocked)
		if tier.BypassAttempted {
			line += Dim("  bypass quiz attempted")
		}
		b.WriteString(line + "\n")

		headers := []string{"COURSE", "STATUS", "PROGRESS", "MASTERED"}
		rows := make([][]string, 0, len(tier.Courses))
		for _, c := range tier.Courses {
			mastered := 0
			for _, m := range c.Modules {
				if m.Mastered {
					mastered++
				}
			}
			rows = append(rows, []string{
				c.Title,
				StatusPill(c.Status),
				RenderProgress(c.Percent, courseProgressBarWidth),
				fmt.Sprintf("%d/%d", mastered, len(c.Modules)),
			})
		}
		b.WriteString(RenderTable(headers, rows))
		b.WriteString("\n")
	}

	if ov.ProgramComplete {
		msg := "Program complete"
		if ov.CompletedAt != nil {
			msg += " " + HumanDate(*ov.CompletedAt, now)
		}
		b.WriteString(StyleGreen.Render("✔ "+msg) + "\n")
		b.WriteString(Dim("Issue your certificate with: learnpath certificate issue --name NAME") + "\n")
	}

	return RenderBox("Progress", b.String())
}

// FormatCourseDetail renders one course's modules with completion marks.
func FormatCourseDetail(c app.CourseView) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s  %s  %s\n\n", Bold(c.Title), StatusPill(c.Status), RenderProgress(c.Percent, courseProgressBarWidth)))

	headers := []string{"SECTION", "TITLE", "TYPE", "DONE", "MASTERED"}
	rows := make([][]string, 0, len(c.Modules))
	for _, m := range c.Modules {
		rows = append(rows, []string{
			m.Label,
			m.Title,
			ModuleTypeBadge(m.Type),
			checkMark(m.Done),
			checkMark(m.Mastered),
		})
	}
	b.WriteString(RenderTable(headers, rows))
	return b.String()
}

func checkMark(ok bool) string {
	if ok {
		return StyleGreen.Render("✔")
	}
	return Dim("·")
}
