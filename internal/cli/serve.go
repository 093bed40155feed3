package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/visualobserver/pkg/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the translation API over HTTP",
		Long: `Serve the translation API over HTTP.

Endpoints:
  GET  /healthz        build information
  POST /v1/parse       normalize a root margin
  POST /v1/translate   translate a margin for a viewport snapshot
  POST /v1/simulate    run a TOML scenario`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			printInfo("Listening on %s", StyleHighlight.Render("http://"+addr))
			if err := server.New(logger).ListenAndServe(cmd.Context(), addr); err != nil {
				return err
			}
			printSuccess("Server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address")
	return cmd
}
