package cli

import (
	"github.com/alexanderramin/learnpath/internal/catalog"
	"github.com/alexanderramin/learnpath/internal/cli/formatter"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// learnpathHuhTheme returns a huh theme matching the formatter palette.
func learnpathHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.MultiSelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.SelectedPrefix = lipgloss.NewStyle().Foreground(formatter.ColorGreen).SetString("[✔] ")
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.UnselectedPrefix = lipgloss.NewStyle().Foreground(formatter.ColorDim).SetString("[ ] ")
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

// bypassOptions lists the courses of a tier as multi-select options.
func bypassOptions(cat catalog.Provider, courseIDs []string) []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(courseIDs))
	for _, id := range courseIDs {
		label := id
		if c, ok := cat.Course(id); ok {
			label = c.Title
		}
		opts = append(opts, huh.NewOption(label, id))
	}
	return opts
}

// bypassForm asks which courses of a tier the learner passed in the quiz.
func bypassForm(cat catalog.Provider, courseIDs []string, passed *[]string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Which courses did the quiz show you already know?").
				Description("Passed courses are credited as complete.").
				Options(bypassOptions(cat, courseIDs)...).
				Value(passed),
		),
	).WithTheme(learnpathHuhTheme()).WithShowHelp(false)
}
