package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/idcmap/idcmap/internal/config"
)

//go:embed templates/idcmap.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new idcmap configuration file",
		Long: `Initialize creates a new .idcmap configuration file in the current directory.

The generated file includes commented examples for:
- Custom region tables (bounding boxes, subdivisions, exclusion zones)
- Curated seed records merged into the harvest
- Known cluster markers to decompose
- Site-specific cookies, headers, and page-parameter conventions

Examples:
  # Create .idcmap in current directory
  idcmap init

  # Create config file at a specific path
  idcmap init -o myconfig.yaml

  # Force overwrite existing file
  idcmap init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/idcmap.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	fmt.Printf("Created configuration file: %s\n", outputPath)
	fmt.Println("\nEdit this file to configure:")
	fmt.Println("  - Custom region tables and exclusion zones")
	fmt.Println("  - Curated seed records and known cluster markers")
	fmt.Println("  - Site-specific cookies and page-parameter conventions")

	return nil
}
