package cluster

import "fmt"

// Plan is everything needed to provision one node. Plans are derived per run
// and never persisted.
type Plan struct {
	Node  Node
	Peers PeerSet
	Role  Role

	// Donor is the sync source for a joiner. It is nil for the primary.
	Donor *Node
}

// IsPrimary reports whether the plan bootstraps the replication group.
func (p Plan) IsPrimary() bool {
	return p.Role == RolePrimary
}

// Plans derives one plan per node, in PeerSet order.
func Plans(peers PeerSet) ([]Plan, error) {
	primaryIdx, err := peers.PrimaryIndex()
	if err != nil {
		return nil, err
	}

	primary := peers.Nodes[primaryIdx]
	plans := make([]Plan, 0, len(peers.Nodes))
	for i, n := range peers.Nodes {
		plans = append(plans, newPlan(n, peers, i == primaryIdx, primary))
	}
	return plans, nil
}

// PlanFor derives the plan of a single named node from the snapshot.
func PlanFor(peers PeerSet, name string) (Plan, error) {
	primaryIdx, err := peers.PrimaryIndex()
	if err != nil {
		return Plan{}, err
	}

	for i, n := range peers.Nodes {
		if n.Name == name {
			return newPlan(n, peers, i == primaryIdx, peers.Nodes[primaryIdx]), nil
		}
	}
	return Plan{}, fmt.Errorf("%w: %q in cluster %d", ErrNodeNotInPeerSet, name, peers.Cluster.ID)
}

func newPlan(n Node, peers PeerSet, isPrimary bool, primary Node) Plan {
	if isPrimary {
		return Plan{Node: n, Peers: peers, Role: RolePrimary}
	}
	donor := primary
	return Plan{Node: n, Peers: peers, Role: RoleJoiner, Donor: &donor}
}
