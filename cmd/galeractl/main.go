// Package main is the entry point for the galeractl CLI.
//
// galeractl records MariaDB Galera clusters and their member hosts in a
// local metadata store and provisions them over SSH: it installs the
// database packages and writes each member's Galera configuration and
// saved state, with one member marked as the bootstrap primary. The same
// operations are exposed over an HTTP API by "galeractl serve".
//
// For detailed usage information, run:
//
//	galeractl --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imamik/galeractl/cmd/galeractl/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	// Interrupting a run closes its remote sessions before exiting.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := commands.Root().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
