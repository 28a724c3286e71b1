package config

import (
	"time"

	"github.com/imamik/galeractl/internal/galera"
)

// Config holds the application configuration.
type Config struct {
	Server       ServerConfig       `mapstructure:"server" yaml:"server"`
	Store        StoreConfig        `mapstructure:"store" yaml:"store"`
	SSH          SSHConfig          `mapstructure:"ssh" yaml:"ssh"`
	Provisioning ProvisioningConfig `mapstructure:"provisioning" yaml:"provisioning"`
	Galera       galera.Options     `mapstructure:"galera" yaml:"galera"`
	Introspect   IntrospectConfig   `mapstructure:"introspect" yaml:"introspect"`
	Log          LogConfig          `mapstructure:"log" yaml:"log"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Listen          string        `mapstructure:"listen" yaml:"listen"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins" yaml:"allowed_origins,omitempty"`
}

// StoreConfig configures the metadata store.
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"` // SQLite file, or ":memory:"
}

// SSHConfig configures remote sessions to member hosts.
type SSHConfig struct {
	User           string        `mapstructure:"user" yaml:"user"`
	Port           int           `mapstructure:"port" yaml:"port"`
	Password       string        `mapstructure:"password" yaml:"password"`
	PrivateKeyPath string        `mapstructure:"private_key_path" yaml:"private_key_path"`
	KnownHostsPath string        `mapstructure:"known_hosts_path" yaml:"known_hosts_path"` // empty disables host key checking
	DialTimeout    time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	MaxRetries     int           `mapstructure:"max_retries" yaml:"max_retries"`
	RetryDelay     time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
}

// ProvisioningConfig configures the orchestrator.
type ProvisioningConfig struct {
	Concurrency int           `mapstructure:"concurrency" yaml:"concurrency"`
	StepTimeout time.Duration `mapstructure:"step_timeout" yaml:"step_timeout"`
	OutputLimit int           `mapstructure:"output_limit" yaml:"output_limit"`
}

// IntrospectConfig configures database introspection.
type IntrospectConfig struct {
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn or error
	Format string `mapstructure:"format" yaml:"format"` // auto, console or json
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:          ":8080",
			ShutdownTimeout: 30 * time.Second,
		},
		Store: StoreConfig{
			Path: "galeractl.db",
		},
		SSH: SSHConfig{
			User:        "root",
			Port:        22,
			DialTimeout: 30 * time.Second,
			MaxRetries:  3,
			RetryDelay:  2 * time.Second,
		},
		Provisioning: ProvisioningConfig{
			Concurrency: 4,
			StepTimeout: 15 * time.Minute,
			OutputLimit: 16 << 10,
		},
		Galera: galera.Options{
			ConfigPath:        galera.DefaultConfigPath,
			StatePath:         galera.DefaultStatePath,
			ClusterNamePrefix: galera.DefaultClusterNamePrefix,
			Provider:          galera.DefaultProvider,
			SSTMethod:         galera.DefaultSSTMethod,
		},
		Introspect: IntrospectConfig{
			Timeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}
