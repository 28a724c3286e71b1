package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/imamik/galeractl/internal/cluster"
)

// CreateCluster records a new cluster and prints its id.
func CreateCluster(ctx context.Context, configPath, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("cluster name is required")
	}

	_, log, st, cleanup, err := setup(configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	c, err := st.CreateCluster(ctx, name)
	if err != nil {
		return err
	}
	log.V(1).Info("cluster created", "cluster", c.ID, "stateUuid", c.StateUUID)

	fmt.Printf("Created cluster %q with id %d.\n", c.Name, c.ID)
	fmt.Printf("Add nodes with: galeractl node add --cluster %d --name NAME --address HOST\n", c.ID)
	return nil
}

// ListClusters prints all recorded clusters.
func ListClusters(ctx context.Context, configPath string) error {
	_, _, st, cleanup, err := setup(configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	clusters, err := st.ListClusters(ctx)
	if err != nil {
		return err
	}
	fmt.Print(renderClusters(clusters))
	return nil
}

// AddNode registers a member host in a cluster.
func AddNode(ctx context.Context, configPath string, clusterID int64, name, address, role string) error {
	node, err := cluster.NewNode(clusterID, name, address, role)
	if err != nil {
		return err
	}

	_, log, st, cleanup, err := setup(configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	node, err = st.CreateNode(ctx, node)
	if err != nil {
		return fmt.Errorf("failed to add node: %w", err)
	}
	log.V(1).Info("node registered", "cluster", clusterID, "node", node.Name, "address", node.Address)

	fmt.Printf("Added node %q (%s) to cluster %d with id %d.\n", node.Name, node.Address, clusterID, node.ID)
	return nil
}

// ListNodes prints the peer set of a cluster in registration order.
func ListNodes(ctx context.Context, configPath string, clusterID int64) error {
	_, _, st, cleanup, err := setup(configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	peers, err := st.PeerSet(ctx, clusterID)
	if err != nil {
		return err
	}
	fmt.Print(renderNodes(peers))
	return nil
}
