// Package main provides the entry point for torhsd.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for torhsd.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "torhsd",
		Short: "Tor control and hidden-service daemon",
		Long: `torhsd launches a bundled Tor daemon, authenticates to its control port,
and publishes a v3 onion hidden service whose private key is persisted
locally.

By default it generates a fresh ED25519-V3 identity on first run and
reuses it on every subsequent start.`,
		Version:       resolveBuildInfo().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("config", "", "Path to a torhsd config file (default: search ./.torhsd.yaml, ~/.torhsd.yaml)")
	cmd.PersistentFlags().String("tor-executable", "", "Path to the tor binary (default: search $PATH and known locations)")
	cmd.PersistentFlags().String("data-dir", "", "Directory for Tor's own state (default: XDG data dir)")
	cmd.PersistentFlags().String("hidden-service-dir", "", "Directory the hidden service's key and hostname are persisted to (default: XDG data dir)")
	cmd.PersistentFlags().String("socks-port", "", "SocksPort value passed to Tor (default: auto)")
	cmd.PersistentFlags().Bool("take-ownership", false, "Ask Tor to exit if this process dies without a clean stop")
	cmd.PersistentFlags().StringArray("target", nil, "Hidden service target as servicePort:targetHost:targetPort (repeatable)")

	// Add subcommands
	cmd.AddCommand(NewStartCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
