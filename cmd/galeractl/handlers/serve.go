package handlers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/galeractl/internal/api"
	"github.com/imamik/galeractl/internal/config"
	"github.com/imamik/galeractl/internal/provisioning"
	"github.com/imamik/galeractl/internal/store"
)

// listen opens the API listener; replaced in tests.
var listen = func(addr string) (net.Listener, error) {
	return net.Listen("tcp", addr)
}

// Serve runs the HTTP API until ctx is canceled, then drains in-flight
// requests for up to server.shutdown_timeout.
func Serve(ctx context.Context, configPath, listenOverride string) error {
	cfg, log, st, cleanup, err := setup(configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	if listenOverride != "" {
		cfg.Server.Listen = listenOverride
	}

	return serve(ctx, cfg, log, st)
}

func serve(ctx context.Context, cfg *config.Config, log logr.Logger, st *store.Store) error {
	events := provisioning.NewBroadcaster()
	observer := provisioning.MultiObserver{provisioning.NewLogObserver(log.WithName("provisioning")), events}

	handler := api.New(api.Options{
		Store: st,
		NewProvisioner: func() (api.Provisioner, error) {
			return newProvisioner(cfg, log, observer)
		},
		Inspector:      newInspector(cfg.Introspect.Timeout),
		Events:         events,
		Logger:         log.WithName("api"),
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	ln, err := listen(cfg.Server.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Server.Listen, err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("galeractl listening", "address", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down cleanly: %w", err)
	}
	return nil
}
