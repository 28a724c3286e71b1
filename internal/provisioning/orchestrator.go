package provisioning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/imamik/galeractl/internal/cluster"
	"github.com/imamik/galeractl/internal/galera"
)

// DefaultConcurrency is the number of nodes provisioned at once when
// Options.Concurrency is not set.
const DefaultConcurrency = 4

// Options configures an Orchestrator.
type Options struct {
	Concurrency int
	StepTimeout time.Duration
	OutputLimit int
	Observer    Observer
}

// Orchestrator provisions the nodes of a cluster.
type Orchestrator struct {
	dial        DialFunc
	sequencer   *galera.Sequencer
	observer    Observer
	concurrency int
	stepTimeout time.Duration
	outputLimit int
}

// New creates an Orchestrator that opens sessions with dial and derives each
// node's steps from seq.
func New(dial DialFunc, seq *galera.Sequencer, opts Options) *Orchestrator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Observer == nil {
		opts.Observer = NopObserver{}
	}
	return &Orchestrator{
		dial:        dial,
		sequencer:   seq,
		observer:    opts.Observer,
		concurrency: opts.Concurrency,
		stepTimeout: opts.StepTimeout,
		outputLimit: opts.OutputLimit,
	}
}

// Provision provisions every node of the snapshot. Nodes run concurrently
// and independently: one node's failure never stops another. An empty
// snapshot or an invalid role assignment is returned as an error before any
// session is opened. Otherwise the Result is always returned, along with a
// *PartialBatchFailure if any node failed.
func (o *Orchestrator) Provision(ctx context.Context, peers cluster.PeerSet) (*Result, error) {
	plans, err := cluster.Plans(peers)
	if err != nil {
		return nil, fmt.Errorf("failed to plan cluster %d: %w", peers.Cluster.ID, err)
	}
	return o.run(ctx, peers.Cluster, plans)
}

// ProvisionNode provisions a single named node against the snapshot, with
// the same primary and donor rules as Provision.
func (o *Orchestrator) ProvisionNode(ctx context.Context, peers cluster.PeerSet, name string) (*Result, error) {
	plan, err := cluster.PlanFor(peers, name)
	if err != nil {
		return nil, fmt.Errorf("failed to plan node %q: %w", name, err)
	}
	return o.run(ctx, peers.Cluster, []cluster.Plan{plan})
}

func (o *Orchestrator) run(ctx context.Context, c cluster.Cluster, plans []cluster.Plan) (*Result, error) {
	start := time.Now()
	emit(o.observer, Event{
		Type:      EventRunStarted,
		ClusterID: c.ID,
		Message:   fmt.Sprintf("provisioning %d node(s) of %s", len(plans), c.Name),
	})

	outcomes := make([]Outcome, len(plans))
	opts := SessionOptions{
		StepTimeout: o.stepTimeout,
		OutputLimit: o.outputLimit,
		Observer:    o.observer,
	}

	var g errgroup.Group
	g.SetLimit(o.concurrency)
	for i, plan := range plans {
		g.Go(func() error {
			nodesInFlight.Inc()
			defer nodesInFlight.Dec()

			outcomes[i] = RunSession(ctx, o.dial, plan, o.sequencer.Sequence(plan), opts)
			return nil
		})
	}
	_ = g.Wait()

	result := &Result{
		ClusterID:   c.ID,
		ClusterName: c.Name,
		Outcomes:    outcomes,
		Duration:    time.Since(start),
	}
	err := result.Err()
	recordRunMetric(err == nil, result.Duration.Seconds())

	ev := Event{ClusterID: c.ID, Type: EventRunCompleted, Message: fmt.Sprintf("%d node(s) provisioned", len(outcomes))}
	var batchErr *PartialBatchFailure
	if errors.As(err, &batchErr) {
		ev.Type = EventRunFailed
		ev.Message = batchErr.Error()
	}
	emit(o.observer, ev)

	return result, err
}
