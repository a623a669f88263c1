package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/idcmap/idcmap/internal/config"
)

// NewRegionsCmd creates the regions command.
func NewRegionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regions",
		Short: "List available region tables",
		Long: `Regions lists the region tables available for harvesting: the built-in
ones and any defined in the configuration file. Each table carries a
macro bounding box, named administrative subdivisions, and optional
exclusion zones for neighboring regions.`,
		RunE: runRegionsCmd,
	}

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .idcmap in current or home directory)")

	return cmd
}

// runRegionsCmd executes the regions command.
func runRegionsCmd(cmd *cobra.Command, _ []string) error {
	configFlag, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}

	var file *config.File
	if configPath := config.FindConfigFile(configFlag); configPath != "" {
		file, err = config.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if configFlag != "" {
		return fmt.Errorf("configuration file not found: %s", configFlag)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Available regions:")

	for _, name := range config.BuiltinTableNames() {
		// A config-file table with the same name shadows the built-in one.
		if file != nil {
			if _, ok := file.Tables[name]; ok {
				continue
			}
		}
		table, _ := config.BuiltinTable(name)
		printRegionTable(out, table, "built-in")
	}

	if file != nil {
		for _, name := range sortedTableNames(file.Tables) {
			printRegionTable(out, file.Tables[name], "config file")
		}
	}

	return nil
}

// printRegionTable writes one region table summary line set.
func printRegionTable(out io.Writer, table *config.RegionTable, origin string) {
	fmt.Fprintf(out, "\n  %s (%s, %s)\n", table.Name, table.Label, origin)
	fmt.Fprintf(out, "    bounds:       lat %.2f..%.2f, lng %.2f..%.2f\n",
		table.Macro.LatMin, table.Macro.LatMax, table.Macro.LngMin, table.Macro.LngMax)
	fmt.Fprintf(out, "    subdivisions: %d\n", len(table.Subdivisions))
	if len(table.ExclusionZones) > 0 {
		fmt.Fprintf(out, "    exclusions:   %d zones\n", len(table.ExclusionZones))
	}
}

// sortedTableNames returns config-file table names in a stable order.
func sortedTableNames(tables map[string]*config.RegionTable) []string {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
