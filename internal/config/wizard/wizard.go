package wizard

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/imamik/galeractl/internal/config"
)

// Result holds all the answers from the interactive wizard.
// Numeric and duration answers are kept as entered and parsed by ToConfig.
type Result struct {
	// Server
	Listen    string
	StorePath string

	// SSH Access
	SSHUser        string
	AuthMethod     string
	PrivateKeyPath string
	KnownHostsPath string // optional

	// Provisioning
	Concurrency string
	StepTimeout string
	SSTMethod   string
}

// NewResult returns a Result prefilled from the default configuration.
func NewResult() *Result {
	def := config.Default()
	return &Result{
		Listen:         def.Server.Listen,
		StorePath:      def.Store.Path,
		SSHUser:        def.SSH.User,
		AuthMethod:     AuthKey,
		PrivateKeyPath: "~/.ssh/id_ed25519",
		Concurrency:    strconv.Itoa(def.Provisioning.Concurrency),
		StepTimeout:    def.Provisioning.StepTimeout.String(),
		SSTMethod:      def.Galera.SSTMethod,
	}
}

// RunWizard runs the interactive configuration wizard.
// The context is used for cancellation support (e.g., Ctrl+C).
func RunWizard(ctx context.Context) (*Result, error) {
	result := NewResult()

	if err := runServerGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	if err := runSSHAccessGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("ssh access: %w", err)
	}

	if err := runProvisioningGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("provisioning: %w", err)
	}

	return result, nil
}

// ToConfig merges the answers over the default configuration and validates
// the outcome.
func (r *Result) ToConfig() (*config.Config, error) {
	cfg := config.Default()

	cfg.Server.Listen = strings.TrimSpace(r.Listen)
	cfg.Store.Path = strings.TrimSpace(r.StorePath)

	cfg.SSH.User = strings.TrimSpace(r.SSHUser)
	cfg.SSH.KnownHostsPath = strings.TrimSpace(r.KnownHostsPath)
	switch r.AuthMethod {
	case AuthKey:
		if strings.TrimSpace(r.PrivateKeyPath) == "" {
			return nil, errPrivateKeyRequired
		}
		cfg.SSH.PrivateKeyPath = strings.TrimSpace(r.PrivateKeyPath)
	case AuthPassword:
		// The password itself never goes into the file.
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownAuthMethod, r.AuthMethod)
	}

	n, err := parseConcurrency(r.Concurrency)
	if err != nil {
		return nil, err
	}
	cfg.Provisioning.Concurrency = n

	d, err := parseStepTimeout(r.StepTimeout)
	if err != nil {
		return nil, err
	}
	cfg.Provisioning.StepTimeout = d

	if r.SSTMethod != "" {
		cfg.Galera.SSTMethod = r.SSTMethod
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseConcurrency(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, errConcurrencyInvalid
	}
	return n, nil
}

func parseStepTimeout(s string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || d <= 0 {
		return 0, errStepTimeoutInvalid
	}
	return d, nil
}
