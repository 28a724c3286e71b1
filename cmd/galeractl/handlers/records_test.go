package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/galeractl/internal/store"
)

func TestCreateCluster(t *testing.T) {
	useTestConfig(t)
	ctx := context.Background()

	output := captureOutput(func() {
		require.NoError(t, CreateCluster(ctx, "", "orders"))
	})
	assert.Contains(t, output, `Created cluster "orders" with id 1.`)
	assert.Contains(t, output, "galeractl node add --cluster 1")

	output = captureOutput(func() {
		require.NoError(t, ListClusters(ctx, ""))
	})
	assert.Contains(t, output, "orders")
	assert.Contains(t, output, "STATE UUID")
}

func TestCreateCluster_EmptyName(t *testing.T) {
	useTestConfig(t)

	err := CreateCluster(context.Background(), "", "  ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cluster name is required")
}

func TestListClusters_Empty(t *testing.T) {
	useTestConfig(t)

	output := captureOutput(func() {
		require.NoError(t, ListClusters(context.Background(), ""))
	})
	assert.Contains(t, output, "No clusters recorded")
}

func TestAddNode(t *testing.T) {
	cfg := useTestConfig(t)
	id := seedCluster(t, cfg, "orders")
	ctx := context.Background()

	output := captureOutput(func() {
		require.NoError(t, AddNode(ctx, "", id, "db1", "10.0.0.1", ""))
		require.NoError(t, AddNode(ctx, "", id, "db2", "10.0.0.2", "primary"))
	})
	assert.Contains(t, output, `Added node "db1" (10.0.0.1) to cluster 1 with id 1.`)

	output = captureOutput(func() {
		require.NoError(t, ListNodes(ctx, "", id))
	})
	assert.Contains(t, output, "db1")
	assert.Contains(t, output, "db2")
	assert.Contains(t, output, "primary")
	assert.Contains(t, output, "yes")
}

func TestAddNode_Invalid(t *testing.T) {
	cfg := useTestConfig(t)
	id := seedCluster(t, cfg, "orders")

	err := AddNode(context.Background(), "", id, "db 1", "10.0.0.1", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid node name")
}

func TestAddNode_Duplicate(t *testing.T) {
	cfg := useTestConfig(t)
	id := seedCluster(t, cfg, "orders", "db1")

	err := AddNode(context.Background(), "", id, "db1", "10.0.0.9", "")
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestAddNode_UnknownCluster(t *testing.T) {
	useTestConfig(t)

	err := AddNode(context.Background(), "", 42, "db1", "10.0.0.1", "")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListNodes_UnknownCluster(t *testing.T) {
	useTestConfig(t)

	err := ListNodes(context.Background(), "", 42)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListNodes_Empty(t *testing.T) {
	cfg := useTestConfig(t)
	id := seedCluster(t, cfg, "orders")

	output := captureOutput(func() {
		require.NoError(t, ListNodes(context.Background(), "", id))
	})
	assert.Contains(t, output, "No nodes in cluster 1")
}

func TestSetup_Errors(t *testing.T) {
	cfg := useTestConfig(t)
	cfg.Store.Path = "/nonexistent-dir/galeractl.db"

	err := ListClusters(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open metadata store")
}
