// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command definitions
// in the commands package. Handlers are framework-agnostic and can be tested
// independently of the CLI framework.
package handlers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"

	"github.com/imamik/galeractl/internal/api"
	"github.com/imamik/galeractl/internal/config"
	"github.com/imamik/galeractl/internal/galera"
	"github.com/imamik/galeractl/internal/logging"
	"github.com/imamik/galeractl/internal/platform/ssh"
	"github.com/imamik/galeractl/internal/provisioning"
	"github.com/imamik/galeractl/internal/store"
)

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// loadConfig loads and validates the configuration.
	loadConfig = config.Load

	// newLogger builds the process logger.
	newLogger = func(cfg *config.Config) (logr.Logger, func(), error) {
		return logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	}

	// openStore opens the metadata store.
	openStore = store.Open

	// newProvisioner builds a provisioner from the current credentials.
	newProvisioner = buildProvisioner
)

// setup loads the configuration, the logger and the store shared by most
// commands. The returned function releases them.
func setup(configPath string) (*config.Config, logr.Logger, *store.Store, func(), error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, logr.Discard(), nil, nil, err
	}

	log, flush, err := newLogger(cfg)
	if err != nil {
		return nil, logr.Discard(), nil, nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	st, err := openStore(cfg.Store.Path)
	if err != nil {
		flush()
		return nil, logr.Discard(), nil, nil, fmt.Errorf("failed to open metadata store %s: %w", cfg.Store.Path, err)
	}

	cleanup := func() {
		if err := st.Close(); err != nil {
			log.Error(err, "failed to close metadata store")
		}
		flush()
	}
	return cfg, log, st, cleanup, nil
}

// buildProvisioner reads the SSH credentials and wires an orchestrator that
// reports to obs. The private key is read on every call so a rotated key is
// picked up by the next run.
func buildProvisioner(cfg *config.Config, log logr.Logger, obs provisioning.Observer) (api.Provisioner, error) {
	sshCfg := &ssh.Config{
		User:           cfg.SSH.User,
		Port:           cfg.SSH.Port,
		Password:       cfg.SSH.Password,
		KnownHostsPath: expandHome(cfg.SSH.KnownHostsPath),
		DialTimeout:    cfg.SSH.DialTimeout,
		MaxRetries:     cfg.SSH.MaxRetries,
		RetryDelay:     cfg.SSH.RetryDelay,
		Logger:         log.WithName("ssh"),
	}
	if cfg.SSH.PrivateKeyPath != "" {
		key, err := ssh.LoadPrivateKey(expandHome(cfg.SSH.PrivateKeyPath))
		if err != nil {
			return nil, err
		}
		sshCfg.PrivateKey = key
	}

	dialer, err := ssh.NewDialer(sshCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure SSH: %w", err)
	}

	seq := galera.NewSequencer(galera.NewRenderer(cfg.Galera))
	return provisioning.New(provisioning.SSHDialer(dialer), seq, provisioning.Options{
		Concurrency: cfg.Provisioning.Concurrency,
		StepTimeout: cfg.Provisioning.StepTimeout,
		OutputLimit: cfg.Provisioning.OutputLimit,
		Observer:    obs,
	}), nil
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
