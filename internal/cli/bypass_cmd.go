package cli

import (
	"fmt"
	"strconv"

	"github.com/alexanderramin/learnpath/internal/app"
	"github.com/alexanderramin/learnpath/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newBypassCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "bypass TIER [COURSE...]",
		Short: "Record a tier-skip quiz and credit the passed courses",
		Long: "Records that the tier-skip quiz was attempted and credits each passed course.\n" +
			"Without course ids an interactive terminal shows a course picker.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tier, err := strconv.Atoi(args[0])
			if err != nil || tier < 1 {
				return fmt.Errorf("invalid tier %q", args[0])
			}
			passed := args[1:]

			return a.withSession(cmd.Context(), func(s *app.Session) error {
				if len(passed) == 0 && a.interactive() {
					if err := bypassForm(s.Catalog(), s.Gate().Courses(tier), &passed).Run(); err != nil {
						return err
					}
				}
				if err := s.Bypass(tier, passed); err != nil {
					return err
				}

				st := s.Store()
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Recorded bypass attempt for tier %d\n", tier)
				for _, id := range passed {
					fmt.Fprintf(out, "  %s %s\n", id, formatter.StatusPill(st.CourseStatus(id)))
				}
				printProgramLine(cmd, s)
				return nil
			})
		},
	}
}
