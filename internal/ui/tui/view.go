package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/imamik/galeractl/internal/cluster"
)

// styleFunc is a single-string styling function.
type styleFunc func(string) string

// sf wraps a lipgloss.Style into a styleFunc.
func sf(s lipgloss.Style) styleFunc {
	return func(str string) string { return s.Render(str) }
}

func renderView(m Model) string {
	var b strings.Builder

	renderHeader(&b, m)
	renderProgressBar(&b, m)
	renderNodes(&b, m)

	if failed := failedRows(m); len(failed) > 0 {
		renderErrors(&b, failed)
	}

	renderFooter(&b, m)

	return b.String()
}

func renderHeader(b *strings.Builder, m Model) {
	b.WriteString(titleStyle.Render(fmt.Sprintf("galeractl: %s", m.ClusterName)))

	status := " "
	switch {
	case m.Done && m.Err == nil:
		status += succeededStyle.Render("Provisioned")
	case m.Err != nil:
		status += failedStyle.Render(fmt.Sprintf("Error: %v", m.Err))
	default:
		status += activeStyle.Render(currentSpinner(m.SpinnerFrame)+" ") + inProgressStyle.Render("Provisioning")
	}
	b.WriteString(status)
	b.WriteString("\n")
}

func renderProgressBar(b *strings.Builder, m Model) {
	progress := calculateProgress(m)
	barWidth := 40
	if m.Width > 0 && m.Width < 80 {
		barWidth = m.Width - 30
		if barWidth < 10 {
			barWidth = 10
		}
	}
	filled := int(float64(barWidth) * progress)
	if filled > barWidth {
		filled = barWidth
	}

	bar := progressBarFull.Render(strings.Repeat("█", filled)) +
		progressBarEmpty.Render(strings.Repeat("░", barWidth-filled))

	fmt.Fprintf(b, "  %s %d%%\n", bar, int(progress*100))
}

func renderNodes(b *strings.Builder, m Model) {
	b.WriteString(sectionStyle.Render("  Nodes"))
	b.WriteString("\n")

	for _, row := range m.Nodes {
		icon, style := nodeIcon(row.State, m.SpinnerFrame)
		role := string(row.Role)
		if row.Role == cluster.RolePrimary {
			role = primaryRoleStyle.Render(role)
		}
		fmt.Fprintf(b, "  %s %-16s %-21s %-8s %s\n",
			style(icon), row.Name, dimStyle.Render(row.Address), role, stepColumn(row, m.TotalSteps))
		if row.State == NodeRunning && row.LastLine != "" {
			fmt.Fprintf(b, "       %s\n", dimStyle.Render(truncate(row.LastLine, 72)))
		}
	}
}

func stepColumn(row NodeRow, total int) string {
	counter := fmt.Sprintf("%d/%d", row.Done, total)
	switch row.State {
	case NodeRunning:
		return counter + " " + row.Step
	case NodeConnecting:
		return dimStyle.Render("connecting")
	case NodeSucceeded:
		return succeededStyle.Render(counter)
	case NodeFailed:
		return failedStyle.Render(counter)
	default:
		return dimStyle.Render("waiting")
	}
}

func renderErrors(b *strings.Builder, rows []NodeRow) {
	b.WriteString(sectionStyle.Render("  Errors"))
	b.WriteString("\n")
	for _, row := range rows {
		fmt.Fprintf(b, "  %s %s: %s\n", failedStyle.Render(crossMark), row.Name, row.Err)
	}
}

func renderFooter(b *strings.Builder, m Model) {
	ok, failed := 0, 0
	for _, row := range m.Nodes {
		switch row.State {
		case NodeSucceeded:
			ok++
		case NodeFailed:
			failed++
		}
	}
	parts := []string{
		fmt.Sprintf("Elapsed: %s", formatDuration(time.Since(m.StartTime))),
		fmt.Sprintf("%d/%d succeeded", ok, len(m.Nodes)),
	}
	if failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", failed))
	}
	b.WriteString(footerStyle.Render(fmt.Sprintf("  %s  |  q: quit", strings.Join(parts, "  |  "))))
	b.WriteString("\n")
}

// Helper functions

func failedRows(m Model) []NodeRow {
	var rows []NodeRow
	for _, row := range m.Nodes {
		if row.State == NodeFailed {
			rows = append(rows, row)
		}
	}
	return rows
}

func nodeIcon(state NodeState, frame int) (string, styleFunc) {
	switch state {
	case NodeSucceeded:
		return checkMark, sf(succeededStyle)
	case NodeFailed:
		return crossMark, sf(failedStyle)
	case NodeConnecting, NodeRunning:
		return currentSpinner(frame), sf(inProgressStyle)
	default:
		return pending, sf(dimStyle)
	}
}

func currentSpinner(frame int) string {
	if frame < 0 {
		frame = -frame
	}
	return spinnerFrames[frame%len(spinnerFrames)]
}

// calculateProgress returns the fraction of all steps across all nodes that
// have finished. A failed node counts as finished.
func calculateProgress(m Model) float64 {
	if m.Done && m.Err == nil {
		return 1.0
	}
	if len(m.Nodes) == 0 || m.TotalSteps == 0 {
		return 0
	}
	done := 0
	for _, row := range m.Nodes {
		if row.State == NodeFailed {
			done += m.TotalSteps
			continue
		}
		done += row.Done
	}
	return float64(done) / float64(len(m.Nodes)*m.TotalSteps)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
