package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/galeractl/cmd/galeractl/handlers"
)

// Node returns the command group for node records.
func Node() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Manage cluster members",
	}

	cmd.AddCommand(nodeAdd())
	cmd.AddCommand(nodeList())

	return cmd
}

// nodeAdd registers a member host.
//
// Flags:
//
//	--cluster: Cluster ID (required)
//	--name: wsrep node name (required)
//	--address: Host address, used for SSH and wsrep (required)
//	--role: "primary" or "joiner"; omitted lets the first node be the primary
func nodeAdd() *cobra.Command {
	var (
		clusterID int64
		name      string
		address   string
		role      string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a node in a cluster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.AddNode(cmd.Context(), configPath(cmd), clusterID, name, address, role)
		},
	}

	cmd.Flags().Int64Var(&clusterID, "cluster", 0, "Cluster ID")
	cmd.Flags().StringVar(&name, "name", "", "wsrep node name")
	cmd.Flags().StringVar(&address, "address", "", "Host address")
	cmd.Flags().StringVar(&role, "role", "", "Node role: primary or joiner")
	_ = cmd.MarkFlagRequired("cluster")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("address")

	return cmd
}

func nodeList() *cobra.Command {
	var clusterID int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the nodes of a cluster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.ListNodes(cmd.Context(), configPath(cmd), clusterID)
		},
	}

	cmd.Flags().Int64Var(&clusterID, "cluster", 0, "Cluster ID")
	_ = cmd.MarkFlagRequired("cluster")

	return cmd
}
