package provisioning

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/imamik/galeractl/internal/cluster"
	"github.com/imamik/galeractl/internal/galera"
)

// fakeRemote simulates a fleet of hosts. Commands are matched by substring.
type fakeRemote struct {
	mu sync.Mutex

	dialErr  map[string]error    // host -> dial error
	failOn   map[string]string   // host -> command substring that exits non-zero
	hangOn   map[string]string   // host -> command substring that blocks until ctx ends
	output   map[string]string   // command substring -> stdout
	delay    time.Duration       // added to every Exec
	executed map[string][]string // host -> commands in order
	closes   map[string]int      // host -> Close calls
	dials    map[string]int      // host -> dial attempts

	active    int
	maxActive int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		dialErr:  map[string]error{},
		failOn:   map[string]string{},
		hangOn:   map[string]string{},
		output:   map[string]string{},
		executed: map[string][]string{},
		closes:   map[string]int{},
		dials:    map[string]int{},
	}
}

func (f *fakeRemote) Dial(_ context.Context, host string) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.dials[host]++
	if err := f.dialErr[host]; err != nil {
		return nil, err
	}
	f.active++
	if f.active > f.maxActive {
		f.maxActive = f.active
	}
	return &fakeSession{remote: f, host: host}, nil
}

func (f *fakeRemote) commands(host string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.executed[host]...)
}

func (f *fakeRemote) closeCount(host string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes[host]
}

func (f *fakeRemote) totalDials() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, d := range f.dials {
		n += d
	}
	return n
}

func (f *fakeRemote) peak() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxActive
}

type fakeSession struct {
	remote *fakeRemote
	host   string

	mu      sync.Mutex
	running bool
	closed  bool
}

func (s *fakeSession) Exec(ctx context.Context, command string, stdout, stderr io.Writer) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.New("session closed")
	}
	if s.running {
		s.mu.Unlock()
		return errors.New("overlapping command on one session")
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	f := s.remote
	f.mu.Lock()
	f.executed[s.host] = append(f.executed[s.host], command)
	fail := f.failOn[s.host]
	hang := f.hangOn[s.host]
	delay := f.delay
	var out string
	for sub, o := range f.output {
		if contains(command, sub) {
			out = o
		}
	}
	f.mu.Unlock()

	if out != "" {
		_, _ = io.WriteString(stdout, out)
	}
	if hang != "" && contains(command, hang) {
		<-ctx.Done()
		return fmt.Errorf("command interrupted: %w", ctx.Err())
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if fail != "" && contains(command, fail) {
		_, _ = io.WriteString(stderr, "E: simulated failure\n")
		return errors.New("command exited with status 100")
	}
	return nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	f := s.remote
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes[s.host]++
	f.active--
	return nil
}

func contains(s, sub string) bool {
	return sub != "" && strings.Contains(s, sub)
}

// recordingObserver keeps every event it receives.
type recordingObserver struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingObserver) Event(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingObserver) ofType(t EventType) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func testPeers(n int) cluster.PeerSet {
	peers := cluster.PeerSet{Cluster: cluster.Cluster{ID: 7, Name: "orders", StateUUID: "6b0c3a5e-1f7d-4b8a-9a55-2b9e1b7c8d10"}}
	for i := 0; i < n; i++ {
		peers.Nodes = append(peers.Nodes, cluster.Node{
			ID:        int64(i + 1),
			ClusterID: 7,
			Name:      fmt.Sprintf("db%d", i+1),
			Address:   fmt.Sprintf("10.0.0.%d", i+1),
		})
	}
	return peers
}

func testSequencer() *galera.Sequencer {
	return galera.NewSequencer(galera.NewRenderer(galera.Options{}))
}
