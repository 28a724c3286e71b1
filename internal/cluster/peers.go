package cluster

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyPeerSet is returned when a cluster has no registered nodes.
	ErrEmptyPeerSet = errors.New("cluster has no registered nodes")

	// ErrNodeNotInPeerSet is returned when a node name is not part of the snapshot.
	ErrNodeNotInPeerSet = errors.New("node is not registered in cluster")

	// ErrMultiplePrimaries is returned when more than one node is explicitly marked primary.
	ErrMultiplePrimaries = errors.New("more than one node is marked primary")

	// ErrNoPrimary is returned when every node is explicitly marked joiner.
	ErrNoPrimary = errors.New("no node can bootstrap the cluster: every node is marked joiner")
)

// PeerSet is an ordered snapshot of a cluster and its nodes.
// Order is significant: without an explicit primary, the first node with no
// explicit role bootstraps the group.
type PeerSet struct {
	Cluster Cluster
	Nodes   []Node
}

// Len returns the number of nodes in the snapshot.
func (p PeerSet) Len() int {
	return len(p.Nodes)
}

// Addresses returns the address of every node in PeerSet order, including
// the primary's.
func (p PeerSet) Addresses() []string {
	addrs := make([]string, 0, len(p.Nodes))
	for _, n := range p.Nodes {
		addrs = append(addrs, n.Address)
	}
	return addrs
}

// PrimaryIndex returns the position of the primary node.
func (p PeerSet) PrimaryIndex() (int, error) {
	if len(p.Nodes) == 0 {
		return -1, ErrEmptyPeerSet
	}

	primary, fallback := -1, -1
	for i, n := range p.Nodes {
		switch n.Role {
		case RolePrimary:
			if primary >= 0 {
				return -1, fmt.Errorf("%w: %s and %s", ErrMultiplePrimaries, p.Nodes[primary].Name, n.Name)
			}
			primary = i
		case RoleUnset:
			if fallback < 0 {
				fallback = i
			}
		}
	}

	switch {
	case primary >= 0:
		return primary, nil
	case fallback >= 0:
		return fallback, nil
	default:
		return -1, ErrNoPrimary
	}
}

// Primary returns the primary node of the snapshot.
func (p PeerSet) Primary() (Node, error) {
	i, err := p.PrimaryIndex()
	if err != nil {
		return Node{}, err
	}
	return p.Nodes[i], nil
}

// Lookup finds a node by its name.
func (p PeerSet) Lookup(name string) (Node, bool) {
	for _, n := range p.Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return Node{}, false
}
