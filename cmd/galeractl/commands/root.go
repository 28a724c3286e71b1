// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the galeractl CLI.
//
// The --config flag is persistent so every subcommand reads the same file.
// When it is empty, galeractl.yaml in the working directory is used if present.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "galeractl",
		Short:         "Provision MariaDB Galera clusters over SSH",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Path to config file (default: galeractl.yaml if present)")

	// Core commands
	cmd.AddCommand(Init())
	cmd.AddCommand(Serve())
	cmd.AddCommand(Cluster())
	cmd.AddCommand(Node())
	cmd.AddCommand(Provision())
	cmd.AddCommand(Inspect())

	// Utility commands
	cmd.AddCommand(Keygen())
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}

// configPath returns the value of the persistent --config flag.
func configPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	return path
}
