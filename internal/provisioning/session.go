package provisioning

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/imamik/galeractl/internal/cluster"
	"github.com/imamik/galeractl/internal/galera"
	"github.com/imamik/galeractl/internal/platform/ssh"
)

// Session is one authenticated remote session on a node.
type Session interface {
	// Exec runs command and returns after it has fully completed.
	Exec(ctx context.Context, command string, stdout, stderr io.Writer) error
	Close() error
}

// DialFunc opens a Session to host.
type DialFunc func(ctx context.Context, host string) (Session, error)

// SSHDialer adapts an ssh.Dialer to a DialFunc.
func SSHDialer(d *ssh.Dialer) DialFunc {
	return func(ctx context.Context, host string) (Session, error) {
		conn, err := d.Dial(ctx, host)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}

// SessionOptions tunes RunSession.
type SessionOptions struct {
	// StepTimeout bounds each step. Zero means no limit beyond ctx.
	StepTimeout time.Duration
	// OutputLimit is the number of trailing output bytes kept in the Outcome.
	OutputLimit int
	Observer    Observer
}

// RunSession provisions one node: it opens a session to the plan's node and
// runs steps in order, each to completion before the next is issued. The
// first failing step ends the session. The session is closed exactly once
// however the run ends, and a failed dial runs no steps.
func RunSession(ctx context.Context, dial DialFunc, plan cluster.Plan, steps []galera.Step, opts SessionOptions) Outcome {
	obs := opts.Observer
	if obs == nil {
		obs = NopObserver{}
	}

	start := time.Now()
	node := plan.Node
	out := Outcome{
		Node:       node.Name,
		NodeID:     node.ID,
		Address:    node.Address,
		Role:       plan.Role,
		TotalSteps: len(steps),
	}
	base := Event{ClusterID: node.ClusterID, Node: node.Name}

	finish := func(err error) Outcome {
		out.Duration = time.Since(start)
		out.Err = err
		ev := base
		if err != nil {
			out.Status = StatusFailed
			ev.Type = EventNodeFailed
			ev.Message = err.Error()
		} else {
			out.Status = StatusSucceeded
			ev.Type = EventNodeSucceeded
			ev.Message = fmt.Sprintf("%s provisioned as %s", node.Name, plan.Role)
		}
		emit(obs, ev)
		recordNodeOutcomeMetric(string(plan.Role), err == nil)
		return out
	}

	ev := base
	ev.Type, ev.Message = EventNodeConnecting, "connecting to "+node.Address
	emit(obs, ev)

	if err := ctx.Err(); err != nil {
		return finish(&ConnectError{Host: node.Address, Err: err})
	}
	sess, err := dial(ctx, node.Address)
	if err != nil {
		return finish(&ConnectError{Host: node.Address, Err: err})
	}
	defer func() { _ = sess.Close() }()

	ev = base
	ev.Type, ev.Message = EventNodeConnected, "connected to "+node.Address
	emit(obs, ev)

	tail := newTailBuffer(opts.OutputLimit)
	for i, step := range steps {
		if err := runStep(ctx, sess, i, step, tail, base, obs, opts.StepTimeout); err != nil {
			out.FailedStep = step.Name
			out.Output = tail.String()
			return finish(err)
		}
		out.StepsCompleted++
	}
	out.Output = tail.String()
	return finish(nil)
}

func runStep(ctx context.Context, sess Session, index int, step galera.Step, tail io.Writer, base Event, obs Observer, timeout time.Duration) error {
	stepEv := base
	stepEv.Step = step.Name
	stepEv.StepIndex = index + 1

	ev := stepEv
	ev.Type, ev.Message = EventStepStarted, step.Name
	emit(obs, ev)

	stepCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	stdout := streamWriter(stepEv, "stdout", obs)
	stderr := streamWriter(stepEv, "stderr", obs)

	start := time.Now()
	err := sess.Exec(stepCtx, step.Command, io.MultiWriter(tail, stdout), io.MultiWriter(tail, stderr))
	stdout.Flush()
	stderr.Flush()
	recordStepMetric(step.Name, err == nil, time.Since(start).Seconds())

	if err == nil {
		ev = stepEv
		ev.Type, ev.Message = EventStepCompleted, step.Name
		emit(obs, ev)
		return nil
	}

	// Only the step's own deadline counts as a timeout; a run-level
	// cancellation is reported as such.
	timedOut := errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil
	cmdErr := &CommandError{Index: index, Step: step.Name, Timeout: timedOut, Err: err}
	ev = stepEv
	ev.Type, ev.Message = EventStepFailed, cmdErr.Error()
	emit(obs, ev)
	return cmdErr
}

func streamWriter(base Event, stream string, obs Observer) *lineWriter {
	return &lineWriter{emit: func(line string) {
		ev := base
		ev.Type = EventStepOutput
		ev.Stream = stream
		ev.Message = line
		emit(obs, ev)
	}}
}
