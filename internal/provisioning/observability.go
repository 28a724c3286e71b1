package provisioning

import (
	"sync"
	"time"

	"github.com/go-logr/logr"
)

// Observer receives provisioning events. Implementations must be safe for
// concurrent use: every node reports from its own goroutine.
type Observer interface {
	Event(event Event)
}

// Event is a structured provisioning event.
type Event struct {
	Type      EventType `json:"type"`
	ClusterID int64     `json:"clusterId"`
	Node      string    `json:"node,omitempty"`
	Step      string    `json:"step,omitempty"`
	StepIndex int       `json:"stepIndex,omitempty"`
	Stream    string    `json:"stream,omitempty"` // "stdout" or "stderr" for output events
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EventType represents the type of provisioning event.
type EventType string

const (
	// EventRunStarted indicates a provisioning run has started.
	EventRunStarted EventType = "run.started"
	// EventRunCompleted indicates every node of a run succeeded.
	EventRunCompleted EventType = "run.completed"
	// EventRunFailed indicates at least one node of a run failed.
	EventRunFailed EventType = "run.failed"

	// EventNodeConnecting indicates a session is being opened.
	EventNodeConnecting EventType = "node.connecting"
	// EventNodeConnected indicates a session is authenticated.
	EventNodeConnected EventType = "node.connected"
	// EventNodeSucceeded indicates all steps ran on a node.
	EventNodeSucceeded EventType = "node.succeeded"
	// EventNodeFailed indicates a node stopped at a connect or step failure.
	EventNodeFailed EventType = "node.failed"

	// EventStepStarted indicates a command was issued.
	EventStepStarted EventType = "step.started"
	// EventStepCompleted indicates a command exited successfully.
	EventStepCompleted EventType = "step.completed"
	// EventStepFailed indicates a command failed.
	EventStepFailed EventType = "step.failed"
	// EventStepOutput carries one line of command output.
	EventStepOutput EventType = "step.output"
)

// NopObserver discards all events.
type NopObserver struct{}

// Event implements Observer.
func (NopObserver) Event(Event) {}

// MultiObserver forwards each event to every observer in order.
type MultiObserver []Observer

// Event implements Observer.
func (m MultiObserver) Event(event Event) {
	for _, o := range m {
		o.Event(event)
	}
}

// LogObserver writes events to a logr.Logger. Output lines are logged at V(1).
type LogObserver struct {
	log logr.Logger
}

// NewLogObserver creates an observer that logs through log.
func NewLogObserver(log logr.Logger) *LogObserver {
	return &LogObserver{log: log}
}

// Event implements Observer.
func (o *LogObserver) Event(event Event) {
	kv := []any{"event", string(event.Type), "cluster", event.ClusterID}
	if event.Node != "" {
		kv = append(kv, "node", event.Node)
	}
	if event.Step != "" {
		kv = append(kv, "step", event.Step, "index", event.StepIndex)
	}

	switch event.Type {
	case EventStepOutput:
		o.log.V(1).Info(event.Message, append(kv, "stream", event.Stream)...)
	case EventNodeFailed, EventStepFailed, EventRunFailed:
		o.log.Info(event.Message, append(kv, "failed", true)...)
	default:
		o.log.Info(event.Message, kv...)
	}
}

// Broadcaster fans events out to live subscribers. Delivery is best effort:
// a subscriber whose buffer is full misses events instead of slowing down
// provisioning.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
}

// NewBroadcaster creates a Broadcaster with no subscribers.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan Event)}
}

// Subscribe registers a subscriber with the given buffer size. The returned
// cancel function unsubscribes and closes the channel; it is safe to call
// more than once.
func (b *Broadcaster) Subscribe(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers returns the number of active subscribers.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Event implements Observer.
func (b *Broadcaster) Event(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			droppedEvents.Inc()
		}
	}
}

func emit(o Observer, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	o.Event(event)
}
