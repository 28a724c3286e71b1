package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/galeractl/cmd/galeractl/handlers"
)

// Serve returns the command that runs the HTTP API.
func Serve() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API until interrupted.

The API manages clusters and nodes in the metadata store, runs provisioning
synchronously per request and streams provisioning events over a websocket
at /events. Prometheus metrics are served at /metrics.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Serve(cmd.Context(), configPath(cmd), listen)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Override server.listen")

	return cmd
}
