package provisioning

import (
	"encoding/json"
	"time"

	"github.com/imamik/galeractl/internal/cluster"
)

// Status is the terminal state of a node's provisioning.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Outcome describes how provisioning went for one node.
type Outcome struct {
	Node           string        `json:"node"`
	NodeID         int64         `json:"nodeId"`
	Address        string        `json:"address"`
	Role           cluster.Role  `json:"role"`
	Status         Status        `json:"status"`
	Err            error         `json:"-"`
	FailedStep     string        `json:"failedStep,omitempty"`
	StepsCompleted int           `json:"stepsCompleted"`
	TotalSteps     int           `json:"totalSteps"`
	Output         string        `json:"output,omitempty"`
	Duration       time.Duration `json:"-"`
}

// OK reports whether every step ran successfully.
func (o Outcome) OK() bool {
	return o.Status == StatusSucceeded
}

// MarshalJSON adds the error message, its kind and the duration in seconds.
func (o Outcome) MarshalJSON() ([]byte, error) {
	type plain Outcome
	out := struct {
		plain
		Error     string  `json:"error,omitempty"`
		ErrorKind string  `json:"errorKind,omitempty"`
		Seconds   float64 `json:"durationSeconds"`
	}{
		plain:     plain(o),
		ErrorKind: ErrorKind(o.Err),
		Seconds:   o.Duration.Seconds(),
	}
	if o.Err != nil {
		out.Error = o.Err.Error()
	}
	return json.Marshal(out)
}

// Result aggregates the outcomes of one provisioning run, in peer set order.
type Result struct {
	ClusterID   int64         `json:"clusterId"`
	ClusterName string        `json:"clusterName"`
	Outcomes    []Outcome     `json:"outcomes"`
	Duration    time.Duration `json:"-"`
}

// Succeeded returns the outcomes of nodes that finished every step.
func (r *Result) Succeeded() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// Failed returns the outcomes of nodes that did not.
func (r *Result) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// Outcome returns the outcome for the named node.
func (r *Result) Outcome(name string) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Node == name {
			return o, true
		}
	}
	return Outcome{}, false
}

// Err returns a *PartialBatchFailure if any node failed, nil otherwise.
func (r *Result) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	return &PartialBatchFailure{
		ClusterID: r.ClusterID,
		Total:     len(r.Outcomes),
		Failed:    failed,
	}
}
