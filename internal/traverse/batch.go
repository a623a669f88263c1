package traverse

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/idcmap/idcmap/internal/config"
	"github.com/idcmap/idcmap/internal/model"
)

// RegionJob describes one region harvest: which region table to classify
// against and which listing URL to start from.
type RegionJob struct {
	// Region is the region table name (e.g. "shanghai").
	Region string

	// StartURL is the directory listing URL for this region.
	StartURL string
}

// BatchHarvester runs several region harvests concurrently.
//
// Design decision: We use a separate BatchHarvester rather than adding
// multi-region support to the Controller because:
// 1. It keeps the Controller focused on a single region's traversal
// 2. Every region needs its own retriever and reconciler state, which the
//    factory makes explicit
// 3. It allows different batch strategies later (rate limiting, retries)
type BatchHarvester struct {
	// controllerFactory builds a fresh controller per job. Controllers
	// carry per-run state (winning pagination parameter, seen hashes,
	// canonical set) and must never be shared between jobs.
	controllerFactory func(job RegionJob) (*Controller, error)

	// concurrency is the maximum number of regions harvested at once.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results holds completed harvest results, one slot per job.
	// Access is synchronized via mutex.
	results []*model.HarvestResult
	mu      sync.Mutex
}

// BatchOption configures a BatchHarvester.
type BatchOption func(*BatchHarvester)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchHarvester) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent region harvests.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchHarvester) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchHarvester creates a BatchHarvester.
//
// The controllerFactory is called once per job so each region gets fresh
// retriever and reconciler state.
func NewBatchHarvester(controllerFactory func(job RegionJob) (*Controller, error), opts ...BatchOption) *BatchHarvester {
	b := &BatchHarvester{
		controllerFactory: controllerFactory,
		concurrency:       config.DefaultBatchSize,
	}

	for _, opt := range opts {
		opt(b)
	}

	if b.logger == nil {
		b.logger = slog.Default()
	}

	return b
}

// Harvest runs all jobs, at most the configured number concurrently, and
// returns their results in job order. A job whose listing produced no
// initial page yields a result with only its seeded records; that is not
// a batch failure. The error return indicates cancellation or a factory
// failure.
func (b *BatchHarvester) Harvest(ctx context.Context, jobs []RegionJob) ([]*model.HarvestResult, error) {
	b.logger.Info("starting batch harvest",
		"total_regions", len(jobs),
		"concurrency", b.concurrency,
	)

	startTime := time.Now()
	b.results = make([]*model.HarvestResult, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, job := range jobs {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			b.logger.Info("harvesting region",
				"region", job.Region,
				"index", i+1,
				"total", len(jobs),
			)

			controller, err := b.controllerFactory(job)
			if err != nil {
				return err
			}

			result, err := controller.Run(ctx, job.StartURL)
			if err != nil && !errors.Is(err, ErrNoInitialPage) {
				return err
			}
			if errors.Is(err, ErrNoInitialPage) {
				b.logger.Warn("region listing unreachable",
					"region", job.Region,
					"start_url", job.StartURL,
				)
			}

			b.mu.Lock()
			b.results[i] = result
			b.mu.Unlock()
			return nil
		})
	}

	err := g.Wait()

	results := make([]*model.HarvestResult, 0, len(jobs))
	for _, r := range b.results {
		if r != nil {
			results = append(results, r)
		}
	}

	b.logger.Info("batch harvest complete",
		"regions", len(results),
		"duration", time.Since(startTime).String(),
	)

	return results, err
}
