package handlers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/imamik/galeractl/internal/cluster"
	"github.com/imamik/galeractl/internal/introspect"
	"github.com/imamik/galeractl/internal/provisioning"
)

// Colors matching internal/ui/tui/styles.go palette.
var (
	colorGreen = lipgloss.Color("#22c55e")
	colorRed   = lipgloss.Color("#ef4444")
	colorBlue  = lipgloss.Color("#3b82f6")
	colorDim   = lipgloss.Color("#6b7280")
	colorWhite = lipgloss.Color("#f9fafb")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	greenStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	redStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)
)

// outputTailLines is how much captured output a failed node shows.
const outputTailLines = 10

// renderResult produces a lipgloss-styled summary of a provisioning run.
func renderResult(result *provisioning.Result) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(titleStyle.Render(fmt.Sprintf("  galeractl provision: %s", result.ClusterName)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  " + strings.Repeat("═", 40)))
	b.WriteString("\n\n")

	for _, o := range result.Outcomes {
		mark := greenStyle.Render("[OK]")
		if !o.OK() {
			mark = redStyle.Render("[!!]")
		}
		fmt.Fprintf(&b, "  %s %-16s %-21s %-8s %d/%d steps  %s\n",
			mark, o.Node, o.Address, o.Role, o.StepsCompleted, o.TotalSteps,
			dimStyle.Render(o.Duration.Round(time.Millisecond).String()))
	}

	failed := result.Failed()
	for _, o := range failed {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(fmt.Sprintf("  %s failed", o.Node)))
		b.WriteString("\n")
		if o.Err != nil {
			b.WriteString(redStyle.Render("  " + o.Err.Error()))
			b.WriteString("\n")
		}
		for _, line := range lastLines(o.Output, outputTailLines) {
			b.WriteString(dimStyle.Render("    " + line))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	summary := fmt.Sprintf("  %d/%d nodes provisioned in %s",
		len(result.Outcomes)-len(failed), len(result.Outcomes), result.Duration.Round(time.Millisecond))
	if len(failed) > 0 {
		b.WriteString(redStyle.Render(summary))
	} else {
		b.WriteString(greenStyle.Render(summary))
	}
	b.WriteString("\n")

	return b.String()
}

// renderClusters renders cluster records as a table.
func renderClusters(clusters []cluster.Cluster) string {
	if len(clusters) == 0 {
		return dimStyle.Render("No clusters recorded. Create one with 'galeractl cluster create NAME'.") + "\n"
	}
	rows := make([][]string, 0, len(clusters))
	for _, c := range clusters {
		rows = append(rows, []string{
			strconv.FormatInt(c.ID, 10),
			c.Name,
			c.StateUUID,
			c.CreatedAt.Local().Format(time.RFC3339),
		})
	}
	return renderTable([]string{"ID", "NAME", "STATE UUID", "CREATED"}, rows)
}

// renderNodes renders a peer set as a table, marking the node that will
// bootstrap the cluster.
func renderNodes(peers cluster.PeerSet) string {
	if peers.Len() == 0 {
		return dimStyle.Render(fmt.Sprintf("No nodes in cluster %d. Add one with 'galeractl node add'.", peers.Cluster.ID)) + "\n"
	}

	primary := -1
	if i, err := peers.PrimaryIndex(); err == nil {
		primary = i
	}

	rows := make([][]string, 0, peers.Len())
	for i, n := range peers.Nodes {
		role := string(n.Role)
		if role == "" {
			role = dimStyle.Render("-")
		}
		bootstrap := ""
		if i == primary {
			bootstrap = "yes"
		}
		rows = append(rows, []string{strconv.FormatInt(n.ID, 10), n.Name, n.Address, role, bootstrap})
	}
	return renderTable([]string{"ID", "NAME", "ADDRESS", "ROLE", "BOOTSTRAPS"}, rows)
}

func renderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	return t.Render() + "\n"
}

// inspectVariables are the server variables shown by renderReport.
var inspectVariables = []string{
	"version",
	"wsrep_on",
	"wsrep_cluster_address",
	"wsrep_node_name",
	"wsrep_sst_method",
	"binlog_format",
	"default_storage_engine",
	"innodb_autoinc_lock_mode",
}

// renderReport renders the Galera summary and selected variables of a node.
func renderReport(node cluster.Node, report *introspect.Report) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(titleStyle.Render(fmt.Sprintf("  %s (%s)", node.Name, report.Host)))
	b.WriteString("\n\n")

	g := report.Galera
	b.WriteString(sectionStyle.Render("  Galera"))
	b.WriteString("\n")
	if !g.Enabled {
		b.WriteString(redStyle.Render("  wsrep is not enabled"))
		b.WriteString("\n")
	} else {
		fmt.Fprintf(&b, "    Cluster:     %s\n", g.ClusterName)
		fmt.Fprintf(&b, "    Size:        %d\n", g.ClusterSize)
		fmt.Fprintf(&b, "    Status:      %s\n", styleBool(g.Status == "Primary", g.Status))
		fmt.Fprintf(&b, "    Local state: %s\n", g.LocalState)
		fmt.Fprintf(&b, "    Ready:       %s\n", styleBool(g.Ready, strconv.FormatBool(g.Ready)))
		fmt.Fprintf(&b, "    Connected:   %s\n", styleBool(g.Connected, strconv.FormatBool(g.Connected)))
		if g.IncomingAddr != "" {
			fmt.Fprintf(&b, "    Incoming:    %s\n", g.IncomingAddr)
		}
	}

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("  Variables"))
	b.WriteString("\n")
	for _, name := range inspectVariables {
		if v, ok := report.GlobalVariables[name]; ok {
			fmt.Fprintf(&b, "    %-26s %s\n", name, v)
		}
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s\n", dimStyle.Render(fmt.Sprintf("%d tables, %d routines, %d triggers, %d connections (use --json for details)",
		len(report.TableStatus), len(report.FunctionStatus)+len(report.ProcedureStatus),
		len(report.Triggers), len(report.ProcessList))))

	return b.String()
}

func styleBool(ok bool, s string) string {
	if ok {
		return greenStyle.Render(s)
	}
	return redStyle.Render(s)
}

// lastLines returns up to n trailing non-empty lines of s.
func lastLines(s string, n int) []string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}
