// Package main provides the entry point for the idcmap CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for idcmap.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "idcmap",
		Short: "Harvest datacenter facility listings from map-based directories",
		Long: `idcmap harvests facility listings from JavaScript-rendered datacenter
directories. It walks the paginated listing with several retrieval
mechanisms (URL-parameter probing, background data endpoints, simulated
browser interaction), decomposes map cluster markers into individual
facilities, classifies every coordinate against a regional boundary
table, and deduplicates the results by rounded coordinates.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewHarvestCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewRegionsCmd())
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
