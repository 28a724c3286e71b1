package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/imamik/galeractl/internal/cluster"
	"github.com/imamik/galeractl/internal/provisioning"
)

// NodeState is the display state of one node.
type NodeState string

const (
	NodePending    NodeState = "pending"
	NodeConnecting NodeState = "connecting"
	NodeRunning    NodeState = "running"
	NodeSucceeded  NodeState = "succeeded"
	NodeFailed     NodeState = "failed"
)

// NodeRow is one line of the node table.
type NodeRow struct {
	Name     string
	Address  string
	Role     cluster.Role
	State    NodeState
	Step     string
	Done     int
	LastLine string
	Err      string
}

// Model is the Bubble Tea model for the provisioning dashboard.
type Model struct {
	ClusterID   int64
	ClusterName string
	TotalSteps  int

	Nodes []NodeRow
	index map[string]int

	StartTime    time.Time
	SpinnerFrame int

	// UI state
	Width  int
	Height int
	Result *provisioning.Result
	Err    error
	Done   bool
}

// NewProvisionModel creates a dashboard for the given plans in peer set order.
func NewProvisionModel(name string, plans []cluster.Plan, totalSteps int) Model {
	m := Model{
		ClusterName: name,
		TotalSteps:  totalSteps,
		StartTime:   time.Now(),
		index:       make(map[string]int, len(plans)),
	}
	for _, p := range plans {
		m.ClusterID = p.Node.ClusterID
		m.index[p.Node.Name] = len(m.Nodes)
		m.Nodes = append(m.Nodes, NodeRow{
			Name:    p.Node.Name,
			Address: p.Node.Address,
			Role:    p.Role,
			State:   NodePending,
		})
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case EventMsg:
		m.apply(msg.Event)

	case TickMsg:
		m.SpinnerFrame++
		return m, tickCmd()

	case ErrMsg:
		m.Err = msg.Err
		return m, tea.Quit

	case DoneMsg:
		m.Done = true
		m.Result = msg.Result
		m.Err = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) apply(ev provisioning.Event) {
	i, ok := m.index[ev.Node]
	if !ok {
		return
	}
	row := &m.Nodes[i]

	switch ev.Type {
	case provisioning.EventNodeConnecting:
		row.State = NodeConnecting
	case provisioning.EventNodeConnected:
		row.State = NodeRunning
	case provisioning.EventStepStarted:
		row.State = NodeRunning
		row.Step = ev.Step
	case provisioning.EventStepCompleted:
		row.Done = ev.StepIndex
	case provisioning.EventStepOutput:
		row.LastLine = ev.Message
	case provisioning.EventStepFailed:
		row.Err = ev.Message
	case provisioning.EventNodeSucceeded:
		row.State = NodeSucceeded
		row.Step = ""
		row.Done = m.TotalSteps
	case provisioning.EventNodeFailed:
		row.State = NodeFailed
		row.Err = ev.Message
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View implements tea.Model.
func (m Model) View() string {
	return renderView(m)
}
