package config

import (
	"fmt"
)

// ValidLogLevels lists the accepted log.level values.
var ValidLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// ValidLogFormats lists the accepted log.format values.
var ValidLogFormats = map[string]bool{
	"auto":    true, // console on a terminal, JSON otherwise
	"console": true,
	"json":    true,
}

// Validate checks the configuration for common errors and returns a detailed error if validation fails.
func (c *Config) Validate() error {
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive, got %s", c.Server.ShutdownTimeout)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}

	if err := c.validateSSH(); err != nil {
		return fmt.Errorf("ssh validation failed: %w", err)
	}
	if err := c.validateProvisioning(); err != nil {
		return fmt.Errorf("provisioning validation failed: %w", err)
	}
	if err := c.validateGalera(); err != nil {
		return fmt.Errorf("galera validation failed: %w", err)
	}

	if c.Introspect.Timeout <= 0 {
		return fmt.Errorf("introspect.timeout must be positive, got %s", c.Introspect.Timeout)
	}
	if !ValidLogLevels[c.Log.Level] {
		return fmt.Errorf("invalid log.level %q", c.Log.Level)
	}
	if !ValidLogFormats[c.Log.Format] {
		return fmt.Errorf("invalid log.format %q", c.Log.Format)
	}
	return nil
}

func (c *Config) validateSSH() error {
	if c.SSH.User == "" {
		return fmt.Errorf("user is required")
	}
	if c.SSH.Port < 1 || c.SSH.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.SSH.Port)
	}
	if c.SSH.DialTimeout <= 0 {
		return fmt.Errorf("dial_timeout must be positive, got %s", c.SSH.DialTimeout)
	}
	if c.SSH.RetryDelay < 0 {
		return fmt.Errorf("retry_delay must not be negative, got %s", c.SSH.RetryDelay)
	}
	return nil
}

func (c *Config) validateProvisioning() error {
	if c.Provisioning.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Provisioning.Concurrency)
	}
	if c.Provisioning.StepTimeout <= 0 {
		return fmt.Errorf("step_timeout must be positive, got %s", c.Provisioning.StepTimeout)
	}
	if c.Provisioning.OutputLimit < 0 {
		return fmt.Errorf("output_limit must not be negative, got %d", c.Provisioning.OutputLimit)
	}
	return nil
}

func (c *Config) validateGalera() error {
	for name, p := range map[string]string{
		"config_path": c.Galera.ConfigPath,
		"state_path":  c.Galera.StatePath,
	} {
		if p == "" || p[0] != '/' {
			return fmt.Errorf("%s must be an absolute path, got %q", name, p)
		}
	}
	if c.Galera.SSTMethod == "" {
		return fmt.Errorf("sst_method is required")
	}
	return nil
}
