package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/idcmap/idcmap/internal/config"
	"github.com/idcmap/idcmap/internal/database"
	"github.com/idcmap/idcmap/internal/extract"
	"github.com/idcmap/idcmap/internal/log"
	"github.com/idcmap/idcmap/internal/model"
	"github.com/idcmap/idcmap/internal/reconcile"
	"github.com/idcmap/idcmap/internal/region"
	"github.com/idcmap/idcmap/internal/report"
	"github.com/idcmap/idcmap/internal/retrieve"
	"github.com/idcmap/idcmap/internal/traverse"
)

// NewHarvestCmd creates the harvest command.
func NewHarvestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harvest [start-url]",
		Short: "Harvest a facility directory listing into a deduplicated dataset",
		Long: `Harvest walks a paginated datacenter-directory listing and produces a
deduplicated facility dataset per region.

It tries several retrieval mechanisms in priority order:
- URL-parameter probing (page, p, pn, offset conventions)
- Background data endpoints discovered in page markup
- Simulated browser interaction for JavaScript-only pagination
- Cluster-marker decomposition via bounded map sub-queries

Every extracted coordinate is classified against the region's boundary
table, and admissible facilities are merged by rounded coordinates.
Results are written as CSV, JSON, and Markdown files, and a summary is
printed to stdout.

Examples:
  # Harvest the default region (shanghai)
  idcmap harvest https://example.com/datacenters

  # Harvest several regions concurrently
  idcmap harvest -r shanghai -r guangdong https://example.com/datacenters

  # JSON output without the browser mechanism
  idcmap harvest --json --no-browser https://example.com/datacenters

  # Use a custom configuration file
  idcmap harvest -c myconfig.yaml https://example.com/datacenters

Configuration file (.idcmap) example:
  seeds:
    shanghai:
      - name: "某数据中心"
        lat: 31.2304
        lng: 121.4737
  sites:
    example.com:
      cookie: "session_id=abc123"
      pageParams: ["pn"]`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHarvestCmd,
	}

	// Fetch behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for each request")
	cmd.Flags().DurationP("page-delay", "d", config.DefaultPageDelay,
		"Politeness delay between page fetches")
	cmd.Flags().IntP("fallback-pages", "p", config.DefaultFallbackPages,
		"Page total assumed when the listing declares none")
	cmd.Flags().Bool("no-browser", false,
		"Disable the simulated-interaction (headless browser) mechanism")

	// Region and dedup flags
	cmd.Flags().StringSliceP("region", "r", []string{"shanghai"},
		"Region table to harvest (repeatable)")
	cmd.Flags().Int("precision", config.DefaultPrecision,
		"Coordinate rounding precision in decimal digits for dedup keys")

	// Batch harvesting flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent region harvests")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .idcmap in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report to stdout (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report to stdout (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Directory for report files (default: XDG data directory)")

	return cmd
}

// runHarvestCmd executes the harvest command.
func runHarvestCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging with payload truncation
	cfg.Verbose = getVerboseFlag(cmd)
	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown.
	// Cancellation is not fatal: the traversal finishes with whatever it
	// reconciled so far and the partial result is still reported.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, finishing with partial results...")
		cancel()
	}()

	return runHarvest(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	if len(args) > 0 {
		cfg.StartURL = args[0]
	}

	cfg.Regions, err = cmd.Flags().GetStringSlice("region")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.PageDelay, err = cmd.Flags().GetDuration("page-delay")
	if err != nil {
		return nil, err
	}

	cfg.FallbackPages, err = cmd.Flags().GetInt("fallback-pages")
	if err != nil {
		return nil, err
	}

	cfg.NoBrowser, err = cmd.Flags().GetBool("no-browser")
	if err != nil {
		return nil, err
	}

	cfg.Precision, err = cmd.Flags().GetInt("precision")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load region tables, seeds, and site overrides from the config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently run without a config file.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.File, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	outputDir, err := cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}

	// Payloads are always cached in the XDG cache directory so interrupted
	// runs can be inspected without re-fetching.
	cfg.CacheDir = config.DefaultCacheDir()

	return cfg, nil
}

// runHarvest executes the harvest across all requested regions.
func runHarvest(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// Resolve every region table up front so an unknown region fails
	// before any network traffic.
	jobs := make([]traverse.RegionJob, 0, len(cfg.Regions))
	for _, name := range cfg.Regions {
		if _, ok := cfg.TableFor(name); !ok {
			return fmt.Errorf("%w: %q (known: %v)", config.ErrUnknownRegion, name, config.BuiltinTableNames())
		}
		jobs = append(jobs, traverse.RegionJob{Region: name, StartURL: cfg.StartURL})
	}

	logger.Info("starting harvest",
		"start_url", cfg.StartURL,
		"regions", cfg.Regions,
		"batch_size", cfg.BatchSize,
	)

	db, err := database.Open(cfg.CacheDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open payload cache: %w", err)
	}
	defer db.Close()
	logger.Info("payload cache opened", "dir", cfg.CacheDir)

	h := &harvester{cfg: cfg, db: db, logger: logger}
	defer h.cleanup()

	if len(jobs) > 1 && cfg.BatchSize > 1 {
		return h.runBatch(ctx, jobs)
	}
	return h.runSequential(ctx, jobs)
}

// harvester carries the shared state of one harvest invocation: the
// resolved config, the payload cache, and the browser sessions to close
// on exit.
type harvester struct {
	cfg    *config.Config
	db     *database.HarvestDB
	logger *slog.Logger

	mu       sync.Mutex
	cleanups []func()
}

// cleanup closes every browser session opened during the run.
func (h *harvester) cleanup() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, fn := range h.cleanups {
		fn()
	}
	h.cleanups = nil
}

// runSequential harvests regions one at a time.
func (h *harvester) runSequential(ctx context.Context, jobs []traverse.RegionJob) error {
	for _, job := range jobs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		controller, err := h.buildController(ctx, job)
		if err != nil {
			return err
		}

		fmt.Printf("Harvesting %s from %s...\n", job.Region, job.StartURL)
		startTime := time.Now()

		result, err := controller.Run(ctx, job.StartURL)
		if errors.Is(err, traverse.ErrNoInitialPage) {
			fmt.Fprintf(os.Stderr, "No mechanism reached the listing for %s; reporting seeded records only.\n", job.Region)
		} else if err != nil {
			h.logger.Error("harvest failed", "region", job.Region, "error", err)
			fmt.Fprintf(os.Stderr, "Harvest error for %s: %v\n", job.Region, err)
			continue
		}

		elapsed := time.Since(startTime)
		fmt.Printf("Harvest completed in %s\n\n", elapsed.Round(time.Millisecond))

		if err := h.outputResult(result); err != nil {
			h.logger.Error("report failed", "region", job.Region, "error", err)
		}
		if err := h.saveResult(ctx, result); err != nil {
			h.logger.Error("failed to save harvest result", "region", job.Region, "error", err)
		}
	}

	return nil
}

// runBatch harvests multiple regions concurrently using BatchHarvester.
func (h *harvester) runBatch(ctx context.Context, jobs []traverse.RegionJob) error {
	fmt.Printf("Starting batch harvest of %d regions (concurrency: %d)...\n\n",
		len(jobs), h.cfg.BatchSize)

	startTime := time.Now()

	bh := traverse.NewBatchHarvester(
		func(job traverse.RegionJob) (*traverse.Controller, error) {
			return h.buildController(ctx, job)
		},
		traverse.WithConcurrency(h.cfg.BatchSize),
		traverse.WithBatchLogger(h.logger),
	)

	results, err := bh.Harvest(ctx, jobs)

	for i, result := range results {
		fmt.Printf("[%d/%d] Harvest completed: %s (%d facilities)\n",
			i+1, len(results), result.Region, len(result.Records))

		if reportErr := h.outputResult(result); reportErr != nil {
			h.logger.Error("report failed", "region", result.Region, "error", reportErr)
		}
		if saveErr := h.saveResult(ctx, result); saveErr != nil {
			h.logger.Error("failed to save harvest result", "region", result.Region, "error", saveErr)
		}
	}

	elapsed := time.Since(startTime)
	fmt.Printf("\nBatch harvest completed in %s\n", elapsed.Round(time.Millisecond))

	return err
}

// buildController assembles the retrieval stack and processing chain for
// one region job: HTTP retrievers, an optional browser session, the
// cluster decomposer, and the extract/classify/reconcile chain.
func (h *harvester) buildController(ctx context.Context, job traverse.RegionJob) (*traverse.Controller, error) {
	table, ok := h.cfg.TableFor(job.Region)
	if !ok {
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownRegion, job.Region)
	}

	if h.db != nil {
		if recent, err := h.db.HasRecentFetch(ctx, job.StartURL, time.Hour); err == nil && recent {
			h.logger.Info("listing fetched within the last hour, cached payloads available via 'idcmap history'",
				"url", job.StartURL, "region", job.Region)
		}
	}

	headers := h.headersFor(job.StartURL)
	siteCfg := h.siteConfigFor(job.StartURL)
	client := &http.Client{Timeout: h.cfg.Timeout}

	parametricOpts := []retrieve.ParametricOption{
		retrieve.WithParametricClient(client),
		retrieve.WithParametricHeaders(headers),
		retrieve.WithParametricLogger(h.logger),
		retrieve.WithParametricMaxBody(h.cfg.MaxBodySize),
	}
	if len(siteCfg.PageParams) > 0 {
		parametricOpts = append(parametricOpts, retrieve.WithConventions(siteCfg.PageParams))
	}
	parametric, err := retrieve.NewParametric(job.StartURL, parametricOpts...)
	if err != nil {
		return nil, fmt.Errorf("invalid start URL: %w", err)
	}

	endpoint, err := retrieve.NewBackgroundEndpoint(job.StartURL,
		retrieve.WithEndpointClient(client),
		retrieve.WithEndpointHeaders(headers),
		retrieve.WithEndpointLogger(h.logger),
		retrieve.WithEndpointMaxBody(h.cfg.MaxBodySize),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid start URL: %w", err)
	}

	retrievers := []retrieve.PageRetriever{parametric, endpoint}

	// The browser mechanism is best effort: a machine without Chrome can
	// still harvest through the HTTP mechanisms.
	if !h.cfg.NoBrowser {
		driver, err := retrieve.NewChromeDriver(ctx, h.cfg.UserAgent)
		if err != nil {
			h.logger.Warn("headless browser unavailable, continuing without simulated interaction",
				"error", err)
		} else {
			h.addCleanup(func() {
				if err := driver.Close(); err != nil {
					h.logger.Warn("browser session close failed", "error", err)
				}
			})
			retrievers = append(retrievers, retrieve.NewSimulatedInteraction(driver, job.StartURL,
				retrieve.WithSettleDelay(h.cfg.SettleDelay),
				retrieve.WithSettleInterval(h.cfg.SettleInterval),
				retrieve.WithInteractionLogger(h.logger),
			))
		}
	}

	decomposer, err := retrieve.NewClusterDecomposer(job.StartURL,
		retrieve.WithClusterClient(client),
		retrieve.WithClusterHeaders(headers),
		retrieve.WithClusterBudget(h.cfg.RetryBudget),
		retrieve.WithClusterLogger(h.logger),
		retrieve.WithClusterMaxBody(h.cfg.MaxBodySize),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid start URL: %w", err)
	}

	controllerOpts := []traverse.Option{
		traverse.WithClusterDecomposer(decomposer),
		traverse.WithEndpointDiscoverer(endpoint),
		traverse.WithFallbackPages(h.cfg.FallbackPages),
		traverse.WithPageDelay(h.cfg.PageDelay),
		traverse.WithControllerLogger(h.logger),
	}
	if h.db != nil {
		controllerOpts = append(controllerOpts, traverse.WithPayloadStore(h.db))
	}

	controller := traverse.New(
		retrievers,
		extract.New(table.Keywords),
		region.New(table),
		reconcile.New(h.cfg.Precision, reconcile.WithPlaceholderLabel(table.Label)),
		controllerOpts...,
	)

	controller.Bootstrap(h.cfg.File.SeedsFor(job.Region), h.cfg.File.ClustersFor(job.Region))

	return controller, nil
}

// addCleanup registers a function to run when the harvest finishes.
func (h *harvester) addCleanup(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cleanups = append(h.cleanups, fn)
}

// headersFor builds the outgoing header set for a listing URL, applying
// site-specific overrides from the config file.
func (h *harvester) headersFor(startURL string) retrieve.Headers {
	headers := retrieve.DefaultHeaders()
	headers.UserAgent = h.cfg.UserAgent
	headers.Referer = h.cfg.Referer

	siteCfg := h.siteConfigFor(startURL)
	if siteCfg.Cookie != "" {
		headers.Cookie = siteCfg.Cookie
	}
	if siteCfg.Referer != "" {
		headers.Referer = siteCfg.Referer
	}
	if len(siteCfg.Headers) > 0 {
		headers.Extra = siteCfg.Headers
	}

	return headers
}

// siteConfigFor resolves the site override block for a listing URL's host.
func (h *harvester) siteConfigFor(startURL string) config.SiteConfig {
	if h.cfg.File == nil {
		return config.SiteConfig{}
	}
	u, err := url.Parse(startURL)
	if err != nil || u.Host == "" {
		return h.cfg.File.Defaults
	}
	return h.cfg.File.GetSiteConfig(u.Host)
}

// outputResult writes the report files and prints the requested format to
// stdout.
func (h *harvester) outputResult(result *model.HarvestResult) error {
	paths, err := report.NewSink(h.cfg.OutputDir, getVersion()).Write(result)
	if err != nil {
		return err
	}
	h.logger.Info("reports written",
		"csv", paths.CSV,
		"json", paths.JSON,
		"markdown", paths.Markdown,
	)

	var writer report.Writer
	switch {
	case h.cfg.JSONReport:
		writer = report.NewFullJSONWriter(os.Stdout, getVersion(), report.WithPrettyPrint())
	case h.cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(os.Stdout)
	default:
		writer = report.NewSummaryWriter(os.Stdout, report.WithVerbose(h.cfg.Verbose))
	}

	_, err = writer.Write(result)
	return err
}

// saveResult persists the harvest result to the run history.
func (h *harvester) saveResult(ctx context.Context, result *model.HarvestResult) error {
	if h.db == nil {
		return nil
	}

	if err := h.db.SaveResult(ctx, result); err != nil {
		return fmt.Errorf("failed to save harvest result: %w", err)
	}

	h.logger.Info("harvest result saved", "region", result.Region, "records", len(result.Records))
	return nil
}
