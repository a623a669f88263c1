package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/idcmap/idcmap/internal/config"
	"github.com/idcmap/idcmap/internal/database"
	"github.com/idcmap/idcmap/internal/report"
)

// NewHistoryCmd creates the history command.
// This command reads the harvest runs and cached payloads stored by
// previous harvest invocations.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect stored harvest runs and cached payloads",
		Long: `History lists the harvest runs saved by previous invocations and lets
cached page payloads be inspected without re-fetching them.

Every harvest run stores its result and the raw payloads it fetched in
the payload cache. Use this command to review what a past run found, or
to dump a cached page body by its content hash (hashes are logged during
verbose harvests).

Examples:
  # List every region with stored runs
  idcmap history

  # Show the latest run for one region
  idcmap history -r shanghai

  # Show the latest run as JSON
  idcmap history -r shanghai --json

  # Dump a cached payload body by content hash
  idcmap history --payload 9f86d081884c7d65`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().StringP("region", "r", "",
		"Show the latest stored run for this region")
	cmd.Flags().BoolP("json", "j", false,
		"Output the stored run in JSON format")
	cmd.Flags().String("payload", "",
		"Print a cached payload body by content hash")
	cmd.Flags().String("cache", "",
		"Payload cache directory (default: XDG cache directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cacheDir, err := cmd.Flags().GetString("cache")
	if err != nil {
		return err
	}
	if cacheDir == "" {
		cacheDir = config.DefaultCacheDir()
	}

	db, err := database.Open(cacheDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open payload cache: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	hash, err := cmd.Flags().GetString("payload")
	if err != nil {
		return err
	}
	if hash != "" {
		return dumpPayload(ctx, db, hash)
	}

	regionName, err := cmd.Flags().GetString("region")
	if err != nil {
		return err
	}
	if regionName != "" {
		jsonOutput, err := cmd.Flags().GetBool("json")
		if err != nil {
			return err
		}
		return showLatestRun(ctx, db, regionName, jsonOutput)
	}

	return listStoredRuns(ctx, db)
}

// listStoredRuns prints one line per region with stored harvest runs.
func listStoredRuns(ctx context.Context, db *database.HarvestDB) error {
	regions, err := db.ListRegions(ctx)
	if err != nil {
		return err
	}
	if len(regions) == 0 {
		fmt.Println("No stored harvest runs. Run 'idcmap harvest' first.")
		return nil
	}

	fmt.Println("Stored harvest runs:")
	for _, r := range regions {
		result, err := db.LatestResult(ctx, r)
		if err != nil {
			return err
		}
		if result == nil {
			continue
		}
		fmt.Printf("  %s: %d facilities (latest run %s)\n",
			r, len(result.Records), result.StartedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

// showLatestRun prints the most recent stored run for one region.
func showLatestRun(ctx context.Context, db *database.HarvestDB, regionName string, jsonOutput bool) error {
	result, err := db.LatestResult(ctx, regionName)
	if err != nil {
		return err
	}
	if result == nil {
		return fmt.Errorf("no stored runs for region %q", regionName)
	}

	var writer report.Writer
	if jsonOutput {
		writer = report.NewFullJSONWriter(os.Stdout, getVersion(), report.WithPrettyPrint())
	} else {
		writer = report.NewSummaryWriter(os.Stdout, report.WithVerbose(true))
	}
	_, err = writer.Write(result)
	return err
}

// dumpPayload prints a cached payload body to stdout, with its provenance
// on stderr so the body stays pipeable.
func dumpPayload(ctx context.Context, db *database.HarvestDB, hash string) error {
	p, err := db.GetPayload(ctx, hash)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("no cached payload with hash %q", hash)
	}

	fmt.Fprintf(os.Stderr, "# %s page %d from %s (fetched %s)\n",
		p.Mechanism, p.PageIndex, p.URL, p.FetchedAt.Format(time.RFC3339))
	fmt.Print(p.Body)
	return nil
}
