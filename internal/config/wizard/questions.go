package wizard

import (
	"context"
	"net"
	"strings"

	"github.com/charmbracelet/huh"
)

// runServerGroup prompts for the API listen address and metadata store.
func runServerGroup(ctx context.Context, result *Result) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Listen Address").
				Description("Address the HTTP API binds to").
				Placeholder(":8080").
				Value(&result.Listen).
				Validate(validateListen),
			huh.NewInput().
				Title("Metadata Store").
				Description("SQLite file holding clusters and nodes").
				Placeholder("galeractl.db").
				Value(&result.StorePath).
				Validate(validateRequiredPath),
		).Title("Server"),
	).RunWithContext(ctx)
}

// runSSHAccessGroup prompts for the credentials used on member hosts.
func runSSHAccessGroup(ctx context.Context, result *Result) error {
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("SSH User").
				Description("Must be able to run apt-get and systemctl without a password prompt").
				Value(&result.SSHUser).
				Validate(validateSSHUser),
			huh.NewSelect[string]().
				Title("Authentication").
				Options(ChoicesToOptions(AuthMethods)...).
				Value(&result.AuthMethod),
		).Title("SSH Access"),
	).RunWithContext(ctx)
	if err != nil {
		return err
	}

	if result.AuthMethod != AuthKey {
		result.PrivateKeyPath = ""
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Private Key Path").
				Description("Generate one with 'galeractl keygen' if needed").
				Value(&result.PrivateKeyPath).
				Validate(validateRequiredPath),
		).WithHideFunc(func() bool { return result.AuthMethod != AuthKey }),
		huh.NewGroup(
			huh.NewInput().
				Title("Known Hosts File (Optional)").
				Description("Leave empty to skip host key verification").
				Placeholder("~/.ssh/known_hosts").
				Value(&result.KnownHostsPath),
		),
	).RunWithContext(ctx)
}

// runProvisioningGroup prompts for orchestrator limits and the SST method.
func runProvisioningGroup(ctx context.Context, result *Result) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Concurrency").
				Description("Maximum nodes provisioned at the same time").
				Value(&result.Concurrency).
				Validate(validateConcurrency),
			huh.NewInput().
				Title("Step Timeout").
				Description("Upper bound for a single remote command").
				Value(&result.StepTimeout).
				Validate(validateStepTimeout),
			huh.NewSelect[string]().
				Title("State Snapshot Transfer").
				Description("How joiners copy data from their donor").
				Options(ChoicesToOptions(SSTMethods)...).
				Value(&result.SSTMethod),
		).Title("Provisioning"),
	).RunWithContext(ctx)
}

// validateListen accepts host:port and :port forms.
func validateListen(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errListenRequired
	}
	if _, port, err := net.SplitHostPort(s); err != nil || port == "" {
		return errListenInvalid
	}
	return nil
}

func validateRequiredPath(s string) error {
	if strings.TrimSpace(s) == "" {
		return errPathRequired
	}
	return nil
}

func validateSSHUser(s string) error {
	if strings.TrimSpace(s) == "" {
		return errSSHUserRequired
	}
	return nil
}

func validateConcurrency(s string) error {
	_, err := parseConcurrency(s)
	return err
}

func validateStepTimeout(s string) error {
	_, err := parseStepTimeout(s)
	return err
}
