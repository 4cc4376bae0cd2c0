package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/learnpath/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(2).
		PaddingRight(2).
		PaddingTop(1).
		PaddingBottom(1)

	if title != "" {
		titleRendered := StyleHeader.Render(strings.ToUpper(title))
		inner := titleRendered + "\n\n" + content
		return boxStyle.Render(inner)
	}

	return boxStyle.Render(content)
}

// HumanDate returns a human-friendly absolute date string relative to now.
func HumanDate(t time.Time, now time.Time) string {
	y1, m1, d1 := now.Date()
	y2, m2, d2 := t.Date()

	if y1 == y2 && m1 == m2 && d1 == d2 {
		return "Today"
	}
	yesterday := now.AddDate(0, 0, -1)
	y3, m3, d3 := yesterday.Date()
	if y2 == y3 && m2 == m3 && d2 == d3 {
		return "Yesterday"
	}
	return t.Format("Jan 2, 2006")
}

// StatusPill returns a colored status indicator for a course.
func StatusPill(status domain.CourseStatus) string {
	style := StatusColor(status)
	switch status {
	case domain.CourseCredited:
		return style.Render("★ Credited")
	case domain.CourseCompleted:
		return style.Render("✔ Completed")
	case domain.CourseInProgress:
		return style.Render("● In Progress")
	case domain.CourseNotStarted, "":
		return style.Render("○ Not Started")
	default:
		return style.Render(string(status))
	}
}

// ModuleTypeBadge returns a short label for a module type.
func ModuleTypeBadge(t domain.ModuleType) string {
	switch t {
	case domain.ModuleCFU:
		return StyleBlue.Render("CFU")
	case domain.ModuleWorkshop:
		return StylePurple.Render("Workshop")
	case domain.ModuleContent:
		return StyleFg.Render("Content")
	default:
		return StyleDim.Render("--")
	}
}

// TierLabel renders a tier number with its lock state.
func TierLabel(tier int, unlocked bool) string {
	label := fmt.Sprintf("Tier %d", tier)
	if unlocked {
		return StyleGreen.Render("◆ " + label)
	}
	return StyleDim.Render("◇ " + label + " (locked)")
}

// TruncID returns the first 8 characters of an ID, dimmed.
func TruncID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return StyleDim.Render(id)
}
