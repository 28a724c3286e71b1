// Package tui provides a Bubble Tea dashboard for provisioning runs.
package tui

import "github.com/imamik/galeractl/internal/provisioning"

// EventMsg carries one provisioning event into the dashboard.
type EventMsg struct {
	Event provisioning.Event
}

// TickMsg is sent periodically to refresh the display.
type TickMsg struct{}

// ErrMsg carries an error that aborted the run before any result was produced.
type ErrMsg struct{ Err error }

// DoneMsg signals that the run finished.
type DoneMsg struct {
	Result *provisioning.Result
	Err    error
}
