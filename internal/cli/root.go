package cli

import (
	"time"

	"github.com/alexanderramin/learnpath/internal/app"
	"github.com/alexanderramin/learnpath/internal/catalog"
	"github.com/alexanderramin/learnpath/internal/logger"
	"github.com/alexanderramin/learnpath/internal/store"
	"github.com/spf13/cobra"
)

// App holds everything CLI commands need to open a learner session.
type App struct {
	Catalog      catalog.Provider
	Durable      app.Durable
	Certificates app.CertificateUseCase
	Guest        app.GuestStorage
	Store        store.Options
	Log          *logger.Logger

	DefaultUserID string
	HTTPAddr      string

	// IsInteractive reports whether prompts may be shown. Nil means never.
	IsInteractive func() bool
	// Now is the clock used for display. Nil means time.Now.
	Now func() time.Time

	userID string
}

// NewRootCmd creates the top-level "learnpath" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "learnpath",
		Short:         "Course progress and mastery tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addUserFlag(root.PersistentFlags(), &app.userID, app.DefaultUserID)

	root.AddCommand(
		newCatalogCmd(app),
		newProgressCmd(app),
		newSectionCmd(app),
		newCFUCmd(app),
		newModuleCmd(app),
		newCourseCmd(app),
		newBypassCmd(app),
		newSignInCmd(app),
		newCertificateCmd(app),
		newServeCmd(app),
	)

	return root
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}
