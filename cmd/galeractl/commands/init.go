package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/galeractl/cmd/galeractl/handlers"
)

// Init returns the command for interactively creating a configuration file.
//
// Flags:
//
//	--output, -o: Path to output file (default "galeractl.yaml")
func Init() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactively create a galeractl configuration",
		Long: `Interactively create a galeractl configuration file.

This command asks about:

  - API listen address and metadata store location
  - SSH user and authentication for member hosts
  - Provisioning concurrency, step timeout and SST method

The SSH password is never written to the file; supply it through
GALERACTL_SSH_PASSWORD.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Init(cmd.Context(), outputPath)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "galeractl.yaml", "Output file path")

	return cmd
}
