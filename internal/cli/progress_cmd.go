package cli

import (
	"fmt"

	"github.com/alexanderramin/learnpath/internal/app"
	"github.com/alexanderramin/learnpath/internal/catalog"
	"github.com/alexanderramin/learnpath/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newProgressCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "progress [COURSE]",
		Short: "Show program progress, or one course in detail",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd.Context(), func(s *app.Session) error {
				ov := s.Overview()
				if len(args) == 0 {
					fmt.Fprint(cmd.OutOrStdout(), formatter.FormatProgress(ov, a.now())+"\n")
					return nil
				}
				for _, tier := range ov.Tiers {
					for _, c := range tier.Courses {
						if c.CourseID == args[0] {
							fmt.Fprint(cmd.OutOrStdout(), formatter.FormatCourseDetail(c))
							return nil
						}
					}
				}
				return fmt.Errorf("%w: %s", catalog.ErrUnknownCourse, args[0])
			})
		},
	}
}
