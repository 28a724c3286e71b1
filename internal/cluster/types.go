package cluster

import (
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"
)

// Role is the part a node plays when the replication group is formed.
type Role string

const (
	// RoleUnset means the node has no explicit role and it may be
	// picked as the primary by position.
	RoleUnset Role = ""
	// RolePrimary bootstraps the replication group without a donor.
	RolePrimary Role = "primary"
	// RoleJoiner synchronizes its state from the primary before serving.
	RoleJoiner Role = "joiner"
)

// ParseRole converts user input into a Role. The empty string is RoleUnset.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUnset, RolePrimary, RoleJoiner:
		return Role(s), nil
	default:
		return RoleUnset, fmt.Errorf("invalid role %q: must be %q or %q", s, RolePrimary, RoleJoiner)
	}
}

// Cluster is a replication group as recorded in the metadata store.
type Cluster struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`

	// StateUUID is written to every member's state marker. It is generated
	// once when the cluster is created and never changes afterwards.
	StateUUID string    `json:"stateUuid"`
	CreatedAt time.Time `json:"createdAt"`
}

// Node is a registered member host of a cluster.
type Node struct {
	ID        int64  `json:"id"`
	ClusterID int64  `json:"clusterId"`
	Name      string `json:"wsrepNodeName"`
	Address   string `json:"wsrepNodeAddress"`
	Role      Role   `json:"role,omitempty"`
}

var (
	validNodeNameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)
	validHostnameRe = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9-]*[A-Za-z0-9])?(\.[A-Za-z0-9]([A-Za-z0-9-]*[A-Za-z0-9])?)*$`)
)

// NewNode validates user input and builds an unsaved Node. Surrounding
// whitespace is trimmed. The name must be usable as wsrep_node_name and
// the address must be an IP address or hostname without a port.
func NewNode(clusterID int64, name, address, role string) (Node, error) {
	name = strings.TrimSpace(name)
	address = strings.TrimSpace(address)

	if !validNodeNameRe.MatchString(name) {
		return Node{}, fmt.Errorf("invalid node name %q: must be letters, digits, '.', '_' or '-'", name)
	}
	if net.ParseIP(address) == nil && !validHostnameRe.MatchString(address) {
		return Node{}, fmt.Errorf("invalid node address %q: must be an IP address or hostname", address)
	}
	r, err := ParseRole(strings.TrimSpace(role))
	if err != nil {
		return Node{}, err
	}
	return Node{ClusterID: clusterID, Name: name, Address: address, Role: r}, nil
}
