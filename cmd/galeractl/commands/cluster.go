package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/galeractl/cmd/galeractl/handlers"
)

// Cluster returns the command group for cluster records.
func Cluster() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Manage cluster records",
	}

	cmd.AddCommand(clusterCreate())
	cmd.AddCommand(clusterList())

	return cmd
}

func clusterCreate() *cobra.Command {
	return &cobra.Command{
		Use:   "create NAME",
		Short: "Record a new cluster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.CreateCluster(cmd.Context(), configPath(cmd), args[0])
		},
	}
}

func clusterList() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded clusters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.ListClusters(cmd.Context(), configPath(cmd))
		},
	}
}
