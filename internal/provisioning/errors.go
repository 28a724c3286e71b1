package provisioning

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ConnectError reports that a session could not be opened or authenticated.
// No step ran on the node.
type ConnectError struct {
	Host string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.Host, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// CommandError reports the first failing step on a node. Steps after it were
// never issued.
type CommandError struct {
	Index   int
	Step    string
	Timeout bool
	Err     error
}

func (e *CommandError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("step %d (%s) timed out: %v", e.Index+1, e.Step, e.Err)
	}
	return fmt.Sprintf("step %d (%s) failed: %v", e.Index+1, e.Step, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// PartialBatchFailure aggregates the failed nodes of a run. It is returned
// whenever at least one node failed, including when all of them did.
type PartialBatchFailure struct {
	ClusterID int64
	Total     int
	Failed    []Outcome
}

func (e *PartialBatchFailure) Error() string {
	parts := make([]string, 0, len(e.Failed))
	for _, o := range e.Failed {
		parts = append(parts, fmt.Sprintf("%s: %v", o.Node, o.Err))
	}
	return fmt.Sprintf("provisioning failed on %d of %d nodes: %s",
		len(e.Failed), e.Total, strings.Join(parts, "; "))
}

// FailedNodes returns the names of the failed nodes in peer set order.
func (e *PartialBatchFailure) FailedNodes() []string {
	names := make([]string, 0, len(e.Failed))
	for _, o := range e.Failed {
		names = append(names, o.Node)
	}
	return names
}

// ErrorKind classifies a node failure. A canceled run is reported as
// canceled whether it stopped a step or the dial.
func ErrorKind(err error) string {
	var connErr *ConnectError
	var cmdErr *CommandError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &connErr):
		return "connect"
	case errors.As(err, &cmdErr) && cmdErr.Timeout:
		return "timeout"
	case errors.As(err, &cmdErr):
		return "command"
	default:
		return "unknown"
	}
}
