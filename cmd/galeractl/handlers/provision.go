package handlers

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/imamik/galeractl/internal/cluster"
	"github.com/imamik/galeractl/internal/galera"
	"github.com/imamik/galeractl/internal/provisioning"
	"github.com/imamik/galeractl/internal/ui/tui"
)

// ProvisionOptions selects what a provision command runs against.
type ProvisionOptions struct {
	ClusterID int64
	Node      string // empty provisions every node
	TUI       bool
}

// runProvisionTUI shows the dashboard; replaced in tests.
var runProvisionTUI = tui.RunProvisionTUI

// Provision provisions a cluster, or one node of it, and prints a summary.
// It returns a *provisioning.PartialBatchFailure when any node failed.
func Provision(ctx context.Context, configPath string, opts ProvisionOptions) error {
	cfg, log, st, cleanup, err := setup(configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	peers, err := st.PeerSet(ctx, opts.ClusterID)
	if err != nil {
		return fmt.Errorf("failed to load cluster %d: %w", opts.ClusterID, err)
	}

	run := func(ctx context.Context, obs provisioning.Observer) (*provisioning.Result, error) {
		p, err := newProvisioner(cfg, log, obs)
		if err != nil {
			return nil, err
		}
		if opts.Node != "" {
			return p.ProvisionNode(ctx, peers, opts.Node)
		}
		return p.Provision(ctx, peers)
	}

	var result *provisioning.Result
	if opts.TUI {
		plans, err := selectPlans(peers, opts.Node)
		if err != nil {
			return err
		}
		// The dashboard owns the terminal; log lines would tear it.
		log = logr.Discard()
		model := tui.NewProvisionModel(peers.Cluster.Name, plans, len(galera.StepNames()))
		result, err = runProvisionTUI(ctx, model, run)
		if result != nil {
			fmt.Print(renderResult(result))
		}
		return err
	}

	result, err = run(ctx, provisioning.NewLogObserver(log.WithName("provisioning")))
	if result != nil {
		fmt.Print(renderResult(result))
	}
	return err
}

// selectPlans returns the plans the dashboard shows rows for.
func selectPlans(peers cluster.PeerSet, node string) ([]cluster.Plan, error) {
	if node == "" {
		return cluster.Plans(peers)
	}
	plan, err := cluster.PlanFor(peers, node)
	if err != nil {
		return nil, err
	}
	return []cluster.Plan{plan}, nil
}
