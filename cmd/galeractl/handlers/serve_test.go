package handlers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/galeractl/internal/config"
	"github.com/imamik/galeractl/internal/store"
)

func TestServe_ShutsDownOnCancel(t *testing.T) {
	cfg := useTestConfig(t)
	cfg.Server.ShutdownTimeout = 5 * time.Second

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	listen = func(string) (net.Listener, error) { return ln, nil }

	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg, logr.Discard(), st) }()

	url := fmt.Sprintf("http://%s/healthz", ln.Addr())
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServe_ListenError(t *testing.T) {
	useTestConfig(t)
	listen = func(addr string) (net.Listener, error) {
		return nil, errors.New("address already in use")
	}

	err := Serve(context.Background(), "", ":9999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen on :9999")
}

func TestServe_ConfigError(t *testing.T) {
	saveAndRestoreFactories(t)
	loadConfig = func(string) (*config.Config, error) {
		return nil, errors.New("configuration validation failed: server.listen is required")
	}

	err := Serve(context.Background(), "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}
