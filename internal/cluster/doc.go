// Package cluster defines the metadata model shared by the store, the
// renderer and the provisioning orchestrator.
//
// # Roles
//
// Every provisioning run works on a PeerSet: the cluster record plus its
// nodes, read once from the store in insertion order. Exactly one node of a
// PeerSet is the primary (bootstrap) node:
//
//   - if one node carries an explicit RolePrimary, it is the primary
//   - otherwise the first node without an explicit role is the primary
//   - if every node is an explicit joiner, planning fails with ErrNoPrimary
//
// All other nodes are joiners and use the primary as their sync source
// (donor). The snapshot is never re-read during a run, so the primary cannot
// change while nodes are being provisioned.
//
// # Usage
//
//	peers := cluster.PeerSet{Cluster: c, Nodes: nodes}
//	plans, err := cluster.Plans(peers)
//	if err != nil {
//	    return err
//	}
package cluster
