// Package provisioning drives remote sessions that turn registered hosts into
// members of a Galera cluster.
//
// # Flow
//
// The Orchestrator takes one PeerSet snapshot and derives a plan per node
// (see package cluster). For each plan it renders the step sequence (package
// galera) and runs it over one remote Session:
//
//  1. Dial and authenticate; a failure here runs no steps
//  2. Run each step to completion before issuing the next
//  3. Stop at the first failing step
//  4. Close the session exactly once
//
// Nodes are provisioned concurrently with a bounded number in flight. A
// failing node never aborts its siblings; the Result carries one Outcome per
// node and Result.Err reports which nodes failed and why.
//
// # Observability
//
// Progress is published as Events to an Observer. LogObserver writes them to
// a logr.Logger and Broadcaster fans them out to live subscribers.
package provisioning
