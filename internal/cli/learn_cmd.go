package cli

import (
	"fmt"

	"github.com/alexanderramin/learnpath/internal/app"
	"github.com/alexanderramin/learnpath/internal/catalog"
	"github.com/alexanderramin/learnpath/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newSectionCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "section",
		Short: "Record section completion",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "complete COURSE SECTION",
		Short: "Mark a section complete (module id or section-N)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			courseID, sectionID := args[0], args[1]
			return a.withSession(cmd.Context(), func(s *app.Session) error {
				if err := s.RequireUnlocked(courseID); err != nil {
					return err
				}
				if _, ok := catalog.ResolveSection(s.Catalog(), courseID, sectionID); !ok {
					return fmt.Errorf("unknown section %q in course %s", sectionID, courseID)
				}
				st := s.Store()
				st.InitCourse(courseID)
				st.CompleteSection(courseID, sectionID)
				fmt.Fprintf(cmd.OutOrStdout(), "Completed %s in %s %s\n",
					sectionID, courseID, formatter.RenderProgress(st.CoursePercent(courseID), courseBarWidth))
				return nil
			})
		},
	})
	return cmd
}

func newCFUCmd(a *App) *cobra.Command {
	var correct bool

	answer := &cobra.Command{
		Use:   "answer COURSE CFU ANSWER",
		Short: "Record a check-for-understanding answer",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			courseID, cfuID, selected := args[0], args[1], args[2]
			return a.withSession(cmd.Context(), func(s *app.Session) error {
				if err := s.RequireUnlocked(courseID); err != nil {
					return err
				}
				s.Store().AnswerCFU(courseID, cfuID, selected, correct)
				result := formatter.StyleRed.Render("incorrect")
				if correct {
					result = formatter.StyleGreen.Render("correct")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded answer %q for %s (%s)\n", selected, cfuID, result)
				return nil
			})
		},
	}
	answer.Flags().BoolVar(&correct, "correct", false, "The answer was correct")

	cmd := &cobra.Command{
		Use:   "cfu",
		Short: "Record check-for-understanding answers",
	}
	cmd.AddCommand(answer)
	return cmd
}

func newModuleCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "module",
		Short: "Record module mastery",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "master MODULE",
		Short: "Mark a module mastered",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			moduleID := args[0]
			return a.withSession(cmd.Context(), func(s *app.Session) error {
				def, ok := s.Catalog().Module(moduleID)
				if !ok {
					return fmt.Errorf("unknown module %q", moduleID)
				}
				if err := s.RequireUnlocked(def.CourseID); err != nil {
					return err
				}
				st := s.Store()
				st.MarkModuleMastered(moduleID, def.CourseID)
				fmt.Fprintf(cmd.OutOrStdout(), "Mastered %s (%s) %s\n",
					moduleID, catalog.SectionLabel(def), formatter.RenderProgress(st.CoursePercent(def.CourseID), courseBarWidth))
				return nil
			})
		},
	})
	return cmd
}

func newCourseCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "course",
		Short: "Record course completion",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "complete COURSE",
		Short: "Mark a course complete",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			courseID := args[0]
			return a.withSession(cmd.Context(), func(s *app.Session) error {
				if err := s.RequireUnlocked(courseID); err != nil {
					return err
				}
				st := s.Store()
				st.CompleteCourse(courseID)
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", courseID, formatter.StatusPill(st.CourseStatus(courseID)))
				printProgramLine(cmd, s)
				return nil
			})
		},
	})
	return cmd
}

const courseBarWidth = 10

func printProgramLine(cmd *cobra.Command, s *app.Session) {
	st := s.Store()
	line := fmt.Sprintf("Program %s", formatter.RenderProgress(st.ProgramPercent(), 20))
	if s.ProgramComplete() {
		line += "  " + formatter.StyleGreen.Render("✔ complete")
	}
	fmt.Fprintln(cmd.OutOrStdout(), line)
}
