package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the permitd CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "permitd",
		Short: "permitd - centralized authorization decision service",
		Long: `permitd evaluates access requests against versioned policies,
combining role inheritance with attribute matching, and records every
decision in an append-only audit trail.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
