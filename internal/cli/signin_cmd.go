package cli

import (
	"fmt"

	"github.com/alexanderramin/learnpath/internal/app"
	"github.com/alexanderramin/learnpath/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newSignInCmd(a *App) *cobra.Command {
	var guestFile string

	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in as --user, migrating guest progress on first sign-in",
		Long: "Signs in as --user. Guest progress is uploaded when the account has no\n" +
			"stored progress yet; otherwise the account's progress wins.\n" +
			"--guest imports guest progress from a JSON file instead of the local guest file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.userID == "" {
				return errUserRequired
			}
			report := func(s *app.Session) error {
				rec := s.Reconciler()
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Signed in as %s (%s)\n", formatter.Bold(a.userID), rec.State())
				printProgramLine(cmd, s)
				return nil
			}

			if guestFile == "" {
				return a.withSession(cmd.Context(), report)
			}
			snap, err := app.NewGuestFile(guestFile).Load()
			if err != nil {
				return err
			}
			return a.withImportedGuest(cmd.Context(), snap, report)
		},
	}
	cmd.Flags().StringVar(&guestFile, "guest", "", "Import guest progress from this JSON file")
	return cmd
}
