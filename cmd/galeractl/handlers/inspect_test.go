package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/galeractl/internal/api"
	"github.com/imamik/galeractl/internal/cluster"
	"github.com/imamik/galeractl/internal/introspect"
	"github.com/imamik/galeractl/internal/store"
)

type fakeInspector struct {
	report *introspect.Report
	err    error

	host  string
	creds introspect.Credentials
}

func (f *fakeInspector) Inspect(_ context.Context, host string, creds introspect.Credentials) (*introspect.Report, error) {
	f.host, f.creds = host, creds
	if f.err != nil {
		return nil, f.err
	}
	r := *f.report
	r.Host = host
	return &r, nil
}

func useFakeInspector(f *fakeInspector) {
	newInspector = func(time.Duration) api.Inspector { return f }
}

func testReport() *introspect.Report {
	return &introspect.Report{
		Galera: introspect.Galera{
			Enabled: true, ClusterName: "galera-cluster-1", ClusterSize: 3,
			Status: "Primary", LocalState: "Synced", Ready: true, Connected: true,
		},
		GlobalVariables: map[string]string{"version": "10.11.6-MariaDB", "wsrep_on": "ON"},
		GlobalStatus:    map[string]string{"wsrep_cluster_size": "3"},
		TableStatus:     []map[string]string{{"Name": "orders"}},
	}
}

func TestInspect(t *testing.T) {
	cfg := useTestConfig(t)
	seedCluster(t, cfg, "orders", "db1")
	t.Setenv("GALERACTL_DB_PASSWORD", "secret")

	fake := &fakeInspector{report: testReport()}
	useFakeInspector(fake)

	output := captureOutput(func() {
		require.NoError(t, Inspect(context.Background(), "", InspectOptions{NodeID: 1, User: "monitor"}))
	})

	assert.Equal(t, "10.0.0.1", fake.host)
	assert.Equal(t, introspect.Credentials{User: "monitor", Password: "secret"}, fake.creds)
	assert.Contains(t, output, "db1 (10.0.0.1)")
	assert.Contains(t, output, "galera-cluster-1")
	assert.Contains(t, output, "Synced")
	assert.Contains(t, output, "10.11.6-MariaDB")
	assert.Contains(t, output, "1 tables")
}

func TestInspect_JSON(t *testing.T) {
	cfg := useTestConfig(t)
	seedCluster(t, cfg, "orders", "db1")
	useFakeInspector(&fakeInspector{report: testReport()})

	output := captureOutput(func() {
		require.NoError(t, Inspect(context.Background(), "", InspectOptions{NodeID: 1, User: "root", JSON: true}))
	})

	var report introspect.Report
	require.NoError(t, json.Unmarshal([]byte(output), &report))
	assert.Equal(t, "10.0.0.1", report.Host)
	assert.Equal(t, 3, report.Galera.ClusterSize)
}

func TestInspect_UnknownNode(t *testing.T) {
	useTestConfig(t)
	useFakeInspector(&fakeInspector{report: testReport()})

	err := Inspect(context.Background(), "", InspectOptions{NodeID: 5})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestInspect_ConnectError(t *testing.T) {
	cfg := useTestConfig(t)
	seedCluster(t, cfg, "orders", "db1")
	useFakeInspector(&fakeInspector{err: errors.New("failed to connect to database on 10.0.0.1: refused")})

	err := Inspect(context.Background(), "", InspectOptions{NodeID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to database")
}

func TestRenderReport_WsrepDisabled(t *testing.T) {
	r := testReport()
	r.Galera = introspect.Galera{}
	out := renderReport(cluster.Node{Name: "db1", Address: "10.0.0.1"}, r)
	assert.Contains(t, out, "wsrep is not enabled")
}
