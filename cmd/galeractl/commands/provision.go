package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/galeractl/cmd/galeractl/handlers"
)

// Provision returns the command that provisions a cluster.
//
// Flags:
//
//	--cluster: Cluster ID (required)
//	--node: Provision only this node (by wsrep node name)
//	--tui: Show a live dashboard instead of log output
func Provision() *cobra.Command {
	var opts handlers.ProvisionOptions

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Install and configure Galera on cluster nodes",
		Long: `Provision every node of a cluster over SSH, or a single node with --node.

Each node runs the same command sequence: it refreshes packages, installs
MariaDB, writes the rendered Galera configuration and grastate.dat, stops the
server and prepares /run/mysqld. Only the primary's state file is marked safe
to bootstrap; joiners name it as their donor. Nodes run concurrently up to
provisioning.concurrency, and a failing node does not stop the others.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Provision(cmd.Context(), configPath(cmd), opts)
		},
	}

	cmd.Flags().Int64Var(&opts.ClusterID, "cluster", 0, "Cluster ID")
	cmd.Flags().StringVar(&opts.Node, "node", "", "Provision only this node")
	cmd.Flags().BoolVar(&opts.TUI, "tui", false, "Show a live dashboard")
	_ = cmd.MarkFlagRequired("cluster")

	return cmd
}
