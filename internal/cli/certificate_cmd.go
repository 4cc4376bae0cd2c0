package cli

import (
	"fmt"

	"github.com/alexanderramin/learnpath/internal/app"
	"github.com/alexanderramin/learnpath/internal/cli/formatter"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
)

type issueInput struct {
	Name  string `validate:"required,max=200"`
	Email string `validate:"omitempty,email"`
}

func newCertificateCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "certificate",
		Short: "Issue, show and verify program certificates",
	}
	cmd.AddCommand(
		newCertificateIssueCmd(a),
		newCertificateShowCmd(a),
		newCertificateVerifyCmd(a),
	)
	return cmd
}

func newCertificateIssueCmd(a *App) *cobra.Command {
	var in issueInput

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue the program certificate (once every course is complete)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.userID == "" {
				return errUserRequired
			}
			if err := validator.New().Struct(in); err != nil {
				return fmt.Errorf("invalid certificate details: %w", err)
			}
			return a.withSession(cmd.Context(), func(s *app.Session) error {
				cert, err := a.Certificates.Issue(cmd.Context(), a.userID, in.Name, in.Email, s.ProgramComplete())
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), formatter.FormatCertificate(cert)+"\n")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "Recipient name printed on the certificate")
	cmd.Flags().StringVar(&in.Email, "email", "", "Recipient email (optional)")
	return cmd
}

func newCertificateShowCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the signed-in user's certificate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.userID == "" {
				return errUserRequired
			}
			cert, err := a.Certificates.Get(cmd.Context(), a.userID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatCertificate(cert)+"\n")
			return nil
		},
	}
}

func newCertificateVerifyCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "verify ID",
		Short: "Verify a certificate by its public id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.Certificates.Verify(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatVerification(v)+"\n")
			return nil
		},
	}
}
