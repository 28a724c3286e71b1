package handlers

import (
	"context"
	"fmt"

	"github.com/imamik/galeractl/internal/config"
	"github.com/imamik/galeractl/internal/config/wizard"
)

// Factory function variables for init - can be replaced in tests.
var (
	// fileExists checks if a file exists.
	fileExists = wizard.FileExists

	// confirmOverwrite asks before replacing an existing file.
	confirmOverwrite = wizard.ConfirmOverwrite

	// runWizard runs the interactive wizard.
	runWizard = wizard.RunWizard

	// writeConfig writes the config to a file.
	writeConfig = wizard.WriteConfig
)

// Init runs the configuration wizard and writes the result to outputPath.
func Init(ctx context.Context, outputPath string) error {
	if fileExists(outputPath) {
		ok, err := confirmOverwrite(outputPath)
		if err != nil {
			return fmt.Errorf("failed to confirm overwrite: %w", err)
		}
		if !ok {
			fmt.Println("Aborted, existing file left unchanged.")
			return nil
		}
	}

	printWelcome()

	result, err := runWizard(ctx)
	if err != nil {
		return fmt.Errorf("wizard canceled: %w", err)
	}

	cfg, err := result.ToConfig()
	if err != nil {
		return fmt.Errorf("invalid answers: %w", err)
	}

	if err := writeConfig(cfg, outputPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	printInitSuccess(outputPath, cfg)
	return nil
}

// printWelcome prints the welcome message.
func printWelcome() {
	fmt.Println()
	fmt.Println("galeractl - MariaDB Galera provisioning")
	fmt.Println("=======================================")
	fmt.Println()
	fmt.Println("This wizard creates a configuration file. Press enter to accept a default.")
	fmt.Println()
}

// printInitSuccess prints the success message with summary and next steps.
func printInitSuccess(outputPath string, cfg *config.Config) {
	fmt.Println()
	fmt.Println("Configuration saved!")
	fmt.Println()
	fmt.Printf("  File: %s\n", outputPath)
	fmt.Println()

	fmt.Println("Summary")
	fmt.Println("-------")
	fmt.Printf("  Listen:       %s\n", cfg.Server.Listen)
	fmt.Printf("  Store:        %s\n", cfg.Store.Path)
	fmt.Printf("  SSH user:     %s\n", cfg.SSH.User)
	if cfg.SSH.PrivateKeyPath != "" {
		fmt.Printf("  SSH key:      %s\n", cfg.SSH.PrivateKeyPath)
	} else {
		fmt.Println("  SSH auth:     password (GALERACTL_SSH_PASSWORD)")
	}
	fmt.Printf("  Concurrency:  %d\n", cfg.Provisioning.Concurrency)
	fmt.Printf("  Step timeout: %s\n", cfg.Provisioning.StepTimeout)
	fmt.Printf("  SST method:   %s\n", cfg.Galera.SSTMethod)
	fmt.Println()

	fmt.Println("Next Steps")
	fmt.Println("----------")
	fmt.Println("  1. Record a cluster and its nodes:")
	fmt.Printf("     galeractl -c %s cluster create NAME\n", outputPath)
	fmt.Printf("     galeractl -c %s node add --cluster ID --name db1 --address 10.0.0.1\n", outputPath)
	fmt.Println()
	fmt.Println("  2. Provision it:")
	fmt.Printf("     galeractl -c %s provision --cluster ID --tui\n", outputPath)
	fmt.Println()
}
