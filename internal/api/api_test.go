package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/galeractl/internal/galera"
	"github.com/imamik/galeractl/internal/introspect"
	"github.com/imamik/galeractl/internal/provisioning"
	"github.com/imamik/galeractl/internal/store"
)

// scriptedSession fails any command containing failOn.
type scriptedSession struct {
	failOn string
}

func (s scriptedSession) Exec(_ context.Context, command string, stdout, _ io.Writer) error {
	if s.failOn != "" && strings.Contains(command, s.failOn) {
		return errors.New("command exited with status 100")
	}
	_, _ = io.WriteString(stdout, "ok\n")
	return nil
}

func (scriptedSession) Close() error { return nil }

type testEnv struct {
	store   *store.Store
	events  *provisioning.Broadcaster
	handler http.Handler

	mu      sync.Mutex
	dialed  []string
	failOn  map[string]string // host -> command substring
	factory error
}

func newTestEnv(t *testing.T, mutate ...func(*Options)) *testEnv {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	env := &testEnv{store: st, events: provisioning.NewBroadcaster(), failOn: map[string]string{}}
	dial := func(_ context.Context, host string) (provisioning.Session, error) {
		env.mu.Lock()
		defer env.mu.Unlock()
		env.dialed = append(env.dialed, host)
		return scriptedSession{failOn: env.failOn[host]}, nil
	}

	opts := Options{
		Store: st,
		NewProvisioner: func() (Provisioner, error) {
			if env.factory != nil {
				return nil, env.factory
			}
			seq := galera.NewSequencer(galera.NewRenderer(galera.Options{}))
			return provisioning.New(dial, seq, provisioning.Options{Observer: env.events}), nil
		},
		Inspector: fakeInspector{},
		Events:    env.events,
		Logger:    logr.Discard(),
	}
	for _, m := range mutate {
		m(&opts)
	}
	env.handler = New(opts)
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func (e *testEnv) seedCluster(t *testing.T, nodes ...string) int64 {
	t.Helper()
	w := e.do(t, "POST", "/clusters", `{"name":"orders"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var c struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&c))

	for i, name := range nodes {
		body := `{"wsrepNodeName":"` + name + `","wsrepNodeAddress":"10.0.0.` + string(rune('1'+i)) + `"}`
		w := e.do(t, "POST", "/clusters/1/nodes", body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
	return c.ID
}

type fakeInspector struct{}

func (fakeInspector) Inspect(_ context.Context, host string, creds introspect.Credentials) (*introspect.Report, error) {
	if creds.Password != "secret" {
		return nil, errors.New("Access denied for user '" + creds.User + "'")
	}
	return &introspect.Report{
		Host:   host,
		Galera: introspect.Galera{Enabled: true, ClusterSize: 3, Status: "Primary"},
	}, nil
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v), w.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "GET", "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "GET", "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "galeractl_provisioning_dropped_events_total")
}

func TestClusterLifecycle(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "POST", "/clusters", `{"name":"orders"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[map[string]any](t, w)
	assert.Equal(t, float64(1), created["id"])
	assert.Equal(t, "orders", created["name"])
	assert.NotEmpty(t, created["stateUuid"])

	w = env.do(t, "POST", "/clusters/1/nodes", `{"wsrepNodeName":"db1","wsrepNodeAddress":"10.0.0.1","role":"primary"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	node := decode[map[string]any](t, w)
	assert.Equal(t, "db1", node["wsrepNodeName"])
	assert.Equal(t, "primary", node["role"])

	w = env.do(t, "POST", "/clusters/1/nodes", `{"wsrepNodeName":"db2","wsrepNodeAddress":"db2.internal"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, "GET", "/clusters", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	w = env.do(t, "GET", "/clusters/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	details := decode[map[string]any](t, w)
	assert.Equal(t, "orders", details["name"])
	assert.Len(t, details["nodes"], 2)

	w = env.do(t, "GET", "/clusters/1/nodes", "")
	require.Equal(t, http.StatusOK, w.Code)
	nodes := decode[[]map[string]any](t, w)
	require.Len(t, nodes, 2)
	assert.Equal(t, "db2.internal", nodes[1]["wsrepNodeAddress"])
}

func TestCreateCluster_BadInput(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusBadRequest, env.do(t, "POST", "/clusters", `{"name":"  "}`).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, "POST", "/clusters", `not json`).Code)
}

func TestAddNode_Validation(t *testing.T) {
	env := newTestEnv(t)
	env.seedCluster(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing name", `{"wsrepNodeAddress":"10.0.0.1"}`, http.StatusBadRequest},
		{"bad name", `{"wsrepNodeName":"db 1","wsrepNodeAddress":"10.0.0.1"}`, http.StatusBadRequest},
		{"address list", `{"wsrepNodeName":"db1","wsrepNodeAddress":"10.0.0.1,10.0.0.2"}`, http.StatusBadRequest},
		{"bad role", `{"wsrepNodeName":"db1","wsrepNodeAddress":"10.0.0.1","role":"leader"}`, http.StatusBadRequest},
		{"ipv6", `{"wsrepNodeName":"db6","wsrepNodeAddress":"fd00::6"}`, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, "POST", "/clusters/1/nodes", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestAddNode_ConflictAndNotFound(t *testing.T) {
	env := newTestEnv(t)
	env.seedCluster(t, "db1")

	w := env.do(t, "POST", "/clusters/1/nodes", `{"wsrepNodeName":"db1","wsrepNodeAddress":"10.0.0.9"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, "POST", "/clusters/2/nodes", `{"wsrepNodeName":"db1","wsrepNodeAddress":"10.0.0.9"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNotFoundAndBadIDs(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusNotFound, env.do(t, "GET", "/clusters/5", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, "GET", "/clusters/5/nodes", "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, "GET", "/clusters/abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, "GET", "/clusters/0/nodes", "").Code)
}

func TestProvision_AllSucceed(t *testing.T) {
	env := newTestEnv(t)
	env.seedCluster(t, "db1", "db2", "db3")

	w := env.do(t, "POST", "/clusters/1/provision", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode[map[string]any](t, w)
	assert.Nil(t, body["error"])
	outcomes := body["outcomes"].([]any)
	require.Len(t, outcomes, 3)
	first := outcomes[0].(map[string]any)
	assert.Equal(t, "db1", first["node"])
	assert.Equal(t, "primary", first["role"])
	assert.Equal(t, "succeeded", first["status"])
	assert.Len(t, env.dialed, 3)
}

func TestProvision_PartialFailure(t *testing.T) {
	env := newTestEnv(t)
	env.seedCluster(t, "db1", "db2", "db3")
	env.failOn["10.0.0.2"] = "mariadb-server"

	w := env.do(t, "POST", "/clusters/1/provision", "")
	require.Equal(t, http.StatusBadGateway, w.Code, w.Body.String())

	body := decode[map[string]any](t, w)
	assert.Contains(t, body["error"], "db2")
	outcomes := body["outcomes"].([]any)
	require.Len(t, outcomes, 3)

	failed := outcomes[1].(map[string]any)
	assert.Equal(t, "failed", failed["status"])
	assert.Equal(t, "install-database", failed["failedStep"])
	assert.Equal(t, "command", failed["errorKind"])
	assert.Equal(t, "succeeded", outcomes[2].(map[string]any)["status"])
}

func TestProvision_EmptyCluster(t *testing.T) {
	env := newTestEnv(t)
	env.seedCluster(t)

	w := env.do(t, "POST", "/clusters/1/provision", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "no registered nodes")
	assert.Empty(t, env.dialed)
}

func TestProvision_MultiplePrimaries(t *testing.T) {
	env := newTestEnv(t)
	env.seedCluster(t)
	for _, body := range []string{
		`{"wsrepNodeName":"db1","wsrepNodeAddress":"10.0.0.1","role":"primary"}`,
		`{"wsrepNodeName":"db2","wsrepNodeAddress":"10.0.0.2","role":"primary"}`,
	} {
		require.Equal(t, http.StatusCreated, env.do(t, "POST", "/clusters/1/nodes", body).Code)
	}

	w := env.do(t, "POST", "/clusters/1/provision", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestProvision_AllJoiners(t *testing.T) {
	env := newTestEnv(t)
	env.seedCluster(t)
	for _, body := range []string{
		`{"wsrepNodeName":"db1","wsrepNodeAddress":"10.0.0.1","role":"joiner"}`,
		`{"wsrepNodeName":"db2","wsrepNodeAddress":"10.0.0.2","role":"joiner"}`,
	} {
		require.Equal(t, http.StatusCreated, env.do(t, "POST", "/clusters/1/nodes", body).Code)
	}

	w := env.do(t, "POST", "/clusters/1/provision", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Empty(t, env.dialed)
}

func TestProvision_FactoryError(t *testing.T) {
	env := newTestEnv(t)
	env.seedCluster(t, "db1")
	env.factory = errors.New("config requires a password or a private key")

	w := env.do(t, "POST", "/clusters/1/provision", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "password or a private key")
}

func TestJoinNode(t *testing.T) {
	env := newTestEnv(t)
	env.seedCluster(t, "db1", "db2", "db3")

	w := env.do(t, "POST", "/clusters/1/nodes/db3/join", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode[map[string]any](t, w)
	outcomes := body["outcomes"].([]any)
	require.Len(t, outcomes, 1)
	assert.Equal(t, "joiner", outcomes[0].(map[string]any)["role"])
	assert.Equal(t, []string{"10.0.0.3"}, env.dialed)

	w = env.do(t, "POST", "/clusters/1/nodes/db9/join", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDBInfo(t *testing.T) {
	env := newTestEnv(t)
	env.seedCluster(t, "db1")

	req := httptest.NewRequest("GET", "/nodes/1/db-info", nil)
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))

	req = httptest.NewRequest("GET", "/nodes/1/db-info", nil)
	req.SetBasicAuth("root", "secret")
	w = httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[map[string]any](t, w)
	assert.Equal(t, "10.0.0.1", body["host"])
	assert.Equal(t, "db1", body["node"].(map[string]any)["wsrepNodeName"])
	assert.Equal(t, float64(3), body["galera"].(map[string]any)["clusterSize"])

	req = httptest.NewRequest("GET", "/nodes/1/db-info", nil)
	req.SetBasicAuth("root", "wrong")
	w = httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	req = httptest.NewRequest("GET", "/nodes/9/db-info", nil)
	req.SetBasicAuth("root", "secret")
	w = httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t, func(o *Options) { o.AllowedOrigins = []string{"https://dashboard.example"} })

	req := httptest.NewRequest("OPTIONS", "/clusters", nil)
	req.Header.Set("Origin", "https://dashboard.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	assert.Equal(t, "https://dashboard.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest("GET", "/clusters", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	w = httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestEventsWebsocket(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.handler)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events?cluster=1"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.Eventually(t, func() bool { return env.events.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	env.events.Event(provisioning.Event{Type: provisioning.EventRunStarted, ClusterID: 2})
	env.events.Event(provisioning.Event{Type: provisioning.EventNodeConnected, ClusterID: 1, Node: "db1"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev provisioning.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, provisioning.EventNodeConnected, ev.Type)
	assert.Equal(t, "db1", ev.Node)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return env.events.Subscribers() == 0 }, time.Second, 5*time.Millisecond)
}

func TestEvents_BadClusterFilter(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "GET", "/events?cluster=x", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
