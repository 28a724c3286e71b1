package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/galeractl/cmd/galeractl/handlers"
)

// Inspect returns the command that reads a node's live database state.
func Inspect() *cobra.Command {
	var opts handlers.InspectOptions

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show a node's database server state",
		Long: `Connect to the database server of a recorded node and print its
Galera status along with selected server variables.

The password is read from GALERACTL_DB_PASSWORD.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Inspect(cmd.Context(), configPath(cmd), opts)
		},
	}

	cmd.Flags().Int64Var(&opts.NodeID, "node", 0, "Node ID")
	cmd.Flags().StringVar(&opts.User, "user", "root", "Database user")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Print the full report as JSON")
	_ = cmd.MarkFlagRequired("node")

	return cmd
}
