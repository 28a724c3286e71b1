package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"

	"github.com/imamik/galeractl/internal/api"
	"github.com/imamik/galeractl/internal/cluster"
	"github.com/imamik/galeractl/internal/config"
	"github.com/imamik/galeractl/internal/provisioning"
	"github.com/imamik/galeractl/internal/store"
)

// saveAndRestoreFactories saves and restores all factory functions.
func saveAndRestoreFactories(t *testing.T) {
	origLoadConfig := loadConfig
	origNewLogger := newLogger
	origOpenStore := openStore
	origNewProvisioner := newProvisioner
	origRunProvisionTUI := runProvisionTUI
	origNewInspector := newInspector
	origListen := listen
	origFileExists := fileExists
	origConfirmOverwrite := confirmOverwrite
	origRunWizard := runWizard
	origWriteConfig := writeConfig
	origWriteFile := writeFile

	t.Cleanup(func() {
		loadConfig = origLoadConfig
		newLogger = origNewLogger
		openStore = origOpenStore
		newProvisioner = origNewProvisioner
		runProvisionTUI = origRunProvisionTUI
		newInspector = origNewInspector
		listen = origListen
		fileExists = origFileExists
		confirmOverwrite = origConfirmOverwrite
		runWizard = origRunWizard
		writeConfig = origWriteConfig
		writeFile = origWriteFile
	})
}

// useTestConfig points the handlers at a fresh store in a temp dir and
// returns the config they will load.
func useTestConfig(t *testing.T) *config.Config {
	saveAndRestoreFactories(t)

	cfg := config.Default()
	cfg.Store.Path = filepath.Join(t.TempDir(), "galeractl.db")

	loadConfig = func(string) (*config.Config, error) {
		return cfg, nil
	}
	newLogger = func(*config.Config) (logr.Logger, func(), error) {
		return logr.Discard(), func() {}, nil
	}
	return cfg
}

// seedCluster records a cluster with the given node names, addressed
// 10.0.0.1 onwards, and returns its id.
func seedCluster(t *testing.T, cfg *config.Config, name string, nodes ...string) int64 {
	t.Helper()

	st, err := store.Open(cfg.Store.Path)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	c, err := st.CreateCluster(ctx, name)
	require.NoError(t, err)
	for i, n := range nodes {
		_, err := st.CreateNode(ctx, cluster.Node{
			ClusterID: c.ID,
			Name:      n,
			Address:   fmt.Sprintf("10.0.0.%d", i+1),
		})
		require.NoError(t, err)
	}
	return c.ID
}

func captureOutput(f func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	f()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

// fakeProvisioner returns a canned result and records what it was asked to do.
type fakeProvisioner struct {
	result *provisioning.Result
	err    error

	peers cluster.PeerSet
	node  string
	calls int
}

func (f *fakeProvisioner) Provision(_ context.Context, peers cluster.PeerSet) (*provisioning.Result, error) {
	f.calls++
	f.peers = peers
	return f.result, f.err
}

func (f *fakeProvisioner) ProvisionNode(_ context.Context, peers cluster.PeerSet, name string) (*provisioning.Result, error) {
	f.calls++
	f.peers = peers
	f.node = name
	return f.result, f.err
}

func useFakeProvisioner(fake *fakeProvisioner) {
	newProvisioner = func(*config.Config, logr.Logger, provisioning.Observer) (api.Provisioner, error) {
		return fake, nil
	}
}
