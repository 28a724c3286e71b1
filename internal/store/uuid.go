package store

import "github.com/google/uuid"

// newStateUUID returns a random UUID for a cluster's Galera state marker.
func newStateUUID() string {
	return uuid.NewString()
}
