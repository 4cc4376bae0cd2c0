package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/alexanderramin/learnpath/internal/httpapi"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newServeCmd(a *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the public certificate verification API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			gin.SetMode(gin.ReleaseMode)
			router := httpapi.NewRouter(httpapi.RouterConfig{
				Log:                a.Log,
				CertificateHandler: httpapi.NewCertificateHandler(a.Log, a.Certificates),
			})
			return httpapi.Serve(ctx, addr, router, a.Log)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", a.HTTPAddr, "Listen address (env LEARNPATH_HTTP_ADDR)")
	return cmd
}
