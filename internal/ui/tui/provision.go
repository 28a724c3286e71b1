package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/imamik/galeractl/internal/provisioning"
)

// RunFunc performs a provisioning run, reporting progress to obs.
type RunFunc func(ctx context.Context, obs provisioning.Observer) (*provisioning.Result, error)

// programObserver forwards provisioning events into a running program.
type programObserver struct {
	p *tea.Program
}

func (o programObserver) Event(ev provisioning.Event) {
	o.p.Send(EventMsg{Event: ev})
}

// RunProvisionTUI wraps a provisioning run with a Bubble Tea dashboard.
// Quitting the dashboard cancels the run.
func RunProvisionTUI(ctx context.Context, m Model, run RunFunc) (*provisioning.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	type runResult struct {
		result *provisioning.Result
		err    error
	}
	done := make(chan runResult, 1)

	go func() {
		result, err := run(ctx, programObserver{p: p})
		done <- runResult{result: result, err: err}
		p.Send(DoneMsg{Result: result, Err: err})
	}()

	finalModel, err := p.Run()
	cancel()
	// Wait for the run to observe the cancellation so every session is closed.
	res := <-done
	if err != nil && res.result == nil {
		return nil, fmt.Errorf("TUI error: %w", err)
	}

	if fm, ok := finalModel.(Model); ok && fm.Done {
		return fm.Result, fm.Err
	}
	return res.result, res.err
}
