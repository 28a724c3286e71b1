package config

import (
	"os"
	"strconv"
	"time"
)

// ApplyEnv overrides cfg with GALERACTL_* environment variables. A variable
// that is unset or does not parse leaves the current value in place.
//
// Environment Variables:
//   - GALERACTL_LISTEN
//   - GALERACTL_DATABASE (metadata store path)
//   - GALERACTL_SSH_USER
//   - GALERACTL_SSH_PASSWORD
//   - GALERACTL_SSH_PRIVATE_KEY_PATH
//   - GALERACTL_SSH_KNOWN_HOSTS
//   - GALERACTL_SSH_DIAL_TIMEOUT
//   - GALERACTL_STEP_TIMEOUT
//   - GALERACTL_PROVISION_CONCURRENCY
//   - GALERACTL_LOG_LEVEL
//   - GALERACTL_LOG_FORMAT
func ApplyEnv(cfg *Config) {
	cfg.Server.Listen = parseString("GALERACTL_LISTEN", cfg.Server.Listen)
	cfg.Store.Path = parseString("GALERACTL_DATABASE", cfg.Store.Path)

	cfg.SSH.User = parseString("GALERACTL_SSH_USER", cfg.SSH.User)
	cfg.SSH.Password = parseString("GALERACTL_SSH_PASSWORD", cfg.SSH.Password)
	cfg.SSH.PrivateKeyPath = parseString("GALERACTL_SSH_PRIVATE_KEY_PATH", cfg.SSH.PrivateKeyPath)
	cfg.SSH.KnownHostsPath = parseString("GALERACTL_SSH_KNOWN_HOSTS", cfg.SSH.KnownHostsPath)
	cfg.SSH.DialTimeout = parseDuration("GALERACTL_SSH_DIAL_TIMEOUT", cfg.SSH.DialTimeout)

	cfg.Provisioning.StepTimeout = parseDuration("GALERACTL_STEP_TIMEOUT", cfg.Provisioning.StepTimeout)
	cfg.Provisioning.Concurrency = parseInt("GALERACTL_PROVISION_CONCURRENCY", cfg.Provisioning.Concurrency)

	cfg.Log.Level = parseString("GALERACTL_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = parseString("GALERACTL_LOG_FORMAT", cfg.Log.Format)
}

func parseString(envVar string, defaultVal string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return defaultVal
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
