package traverse

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	"github.com/idcmap/idcmap/internal/config"
	"github.com/idcmap/idcmap/internal/extract"
	"github.com/idcmap/idcmap/internal/model"
	"github.com/idcmap/idcmap/internal/reconcile"
	"github.com/idcmap/idcmap/internal/region"
	"github.com/idcmap/idcmap/internal/retrieve"
)

// ErrNoInitialPage means no retrieval mechanism could produce the first
// page, so the traversal never started. Seeded records, if any, are still
// present on the returned result.
var ErrNoInitialPage = errors.New("traverse: no mechanism produced the initial page")

// defaultStagnationLimit is how many consecutive fetched pages may add
// zero new records before the traversal stops. A page whose record set is
// wholly known signals the walk has looped or run past the real content.
// Listings that clamp their pagination to a valid page can raise the
// limit with WithStagnationLimit.
const defaultStagnationLimit = 1

// clusterMarkerPrecision is the rounding precision used to match
// extracted candidates against cluster marker coordinates.
const clusterMarkerPrecision = 4

// maxTotalPages caps the discovered page total. The total-page patterns
// scan arbitrary markup and can latch onto an unrelated number.
const maxTotalPages = 500

// totalPagePatterns match page-total declarations in listing markup, in
// both the Chinese and English phrasings ("共 12 页", "page 1 of 12",
// "12 pages"). The first capturing match wins.
var totalPagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:共|total|of)\s*(\d{1,4})\s*(?:页|pages?)`),
	regexp.MustCompile(`(?i)page\s*\d+\s*of\s*(\d{1,4})`),
	regexp.MustCompile(`(\d{1,4})\s*页`),
}

// DiscoverTotalPages extracts the declared page total from the initial
// payload, falling back to the given default when no pattern matches or
// the match is implausible.
func DiscoverTotalPages(body string, fallback int) int {
	for _, pattern := range totalPagePatterns {
		m := pattern.FindStringSubmatch(body)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			continue
		}
		if n > maxTotalPages {
			n = maxTotalPages
		}
		return n
	}
	return fallback
}

// PayloadStore persists fetched payloads. Store failures never abort a
// traversal; the payload cache is an aid, not a dependency.
type PayloadStore interface {
	Put(ctx context.Context, p *model.Payload) error
}

// EndpointDiscoverer learns data endpoints from payload bodies. The
// background-endpoint retriever implements it.
type EndpointDiscoverer interface {
	Discover(body string) int
}

// Controller drives one region's harvest: it discovers the page total,
// walks the listing trying each retrieval mechanism in priority order,
// feeds payloads through extraction, classification, and reconciliation,
// and finally drains the cluster sub-query queue.
type Controller struct {
	retrievers []retrieve.PageRetriever
	extractor  *extract.Extractor
	classifier *region.Classifier
	reconciler *reconcile.Reconciler

	decomposer *retrieve.ClusterDecomposer
	discoverer EndpointDiscoverer
	store      PayloadStore

	fallbackPages   int
	pageDelay       time.Duration
	stagnationLimit int
	logger          *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithClusterDecomposer enables cluster-marker decomposition. Markers
// found in payloads are enqueued during traversal and drained afterwards.
func WithClusterDecomposer(d *retrieve.ClusterDecomposer) Option {
	return func(c *Controller) { c.decomposer = d }
}

// WithEndpointDiscoverer feeds every payload body to the given discoverer
// so later pages can use endpoints the earlier markup revealed.
func WithEndpointDiscoverer(d EndpointDiscoverer) Option {
	return func(c *Controller) { c.discoverer = d }
}

// WithPayloadStore persists every fetched payload to the given store.
func WithPayloadStore(s PayloadStore) Option {
	return func(c *Controller) { c.store = s }
}

// WithFallbackPages sets the page total assumed when discovery fails.
func WithFallbackPages(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.fallbackPages = n
		}
	}
}

// WithPageDelay sets the politeness delay between page fetches.
func WithPageDelay(d time.Duration) Option {
	return func(c *Controller) { c.pageDelay = d }
}

// WithStagnationLimit sets how many consecutive pages may add zero new
// records before the traversal stops early.
func WithStagnationLimit(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.stagnationLimit = n
		}
	}
}

// WithControllerLogger sets the logger.
func WithControllerLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// New creates a Controller. Retrievers are tried in the order given;
// put the cheapest mechanism first.
func New(retrievers []retrieve.PageRetriever, extractor *extract.Extractor, classifier *region.Classifier, reconciler *reconcile.Reconciler, opts ...Option) *Controller {
	c := &Controller{
		retrievers:      retrievers,
		extractor:       extractor,
		classifier:      classifier,
		reconciler:      reconciler,
		fallbackPages:   config.DefaultFallbackPages,
		pageDelay:       config.DefaultPageDelay,
		stagnationLimit: defaultStagnationLimit,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Bootstrap primes the reconciler with curated seed records and enqueues
// known cluster markers before the traversal starts. Seeds go through the
// same classification as harvested candidates, so an out-of-region seed
// is dropped, not trusted.
func (c *Controller) Bootstrap(seeds []config.SeedRecord, clusters []config.ClusterMarker) {
	for _, s := range seeds {
		admissible, sub := c.classifier.Classify(s.Latitude, s.Longitude)
		if !admissible {
			c.logger.Warn("seed record outside the target region, skipped",
				slog.String("name", s.Name),
				slog.Float64("lat", s.Latitude),
				slog.Float64("lng", s.Longitude))
			continue
		}
		c.reconciler.Add(model.Validated{
			Candidate: model.Candidate{
				Latitude:  s.Latitude,
				Longitude: s.Longitude,
				Name:      s.Name,
				Source:    "seed",
			},
			Region:     sub,
			Admissible: true,
		})
	}

	if c.decomposer != nil {
		for _, m := range clusters {
			c.decomposer.AddCluster(m)
		}
	}
}

// Run executes the traversal until the listing is exhausted, the page
// total is reached, progress stagnates, or the context is cancelled.
// Cancellation is not an error: the result carries everything reconciled
// so far with Interrupted set.
func (c *Controller) Run(ctx context.Context, startURL string) (*model.HarvestResult, error) {
	result := &model.HarvestResult{
		Region:    c.classifier.Table().Name,
		StartURL:  startURL,
		StartedAt: time.Now(),
	}

	initial, _ := c.fetchPage(ctx, 1)
	if initial == nil {
		result.Interrupted = ctx.Err() != nil
		c.finalize(result)
		return result, ErrNoInitialPage
	}

	total := DiscoverTotalPages(initial.Body, c.fallbackPages)
	result.Stats.TotalPages = total
	c.logger.Info("traversal starting",
		slog.String("region", result.Region),
		slog.Int("total_pages", total))

	c.process(ctx, initial, result)

	stagnant := 0
	for page := 2; page <= total; page++ {
		if err := c.pause(ctx); err != nil {
			result.Interrupted = true
			break
		}

		payload, exhausted := c.fetchPage(ctx, page)
		if payload == nil {
			if ctx.Err() != nil {
				result.Interrupted = true
				break
			}
			if exhausted {
				c.logger.Info("listing exhausted before the declared total",
					slog.Int("page", page))
				break
			}
			continue
		}

		if c.process(ctx, payload, result) == 0 {
			stagnant++
			if stagnant >= c.stagnationLimit {
				c.logger.Info("traversal stagnated, stopping",
					slog.Int("page", page),
					slog.Int("stagnant_pages", stagnant))
				break
			}
		} else {
			stagnant = 0
		}
	}

	if !result.Interrupted {
		c.drainClusters(ctx, total, result)
	}

	c.finalize(result)
	return result, nil
}

// fetchPage tries each mechanism in priority order for one page. The
// second return is true when every mechanism reported no_page, meaning
// the listing has no further pages at all.
func (c *Controller) fetchPage(ctx context.Context, page int) (*model.Payload, bool) {
	allNoPage := len(c.retrievers) > 0
	for _, r := range c.retrievers {
		res := r.Fetch(ctx, page)
		c.logger.Debug("fetch attempt",
			slog.String("mechanism", r.Name()),
			slog.Int("page", page),
			slog.String("status", res.Status.String()))

		switch res.Status {
		case retrieve.StatusOK:
			return res.Payload, false
		case retrieve.StatusNoPage:
			// keeps allNoPage
		case retrieve.StatusTransient:
			allNoPage = false
			c.logger.Warn("fetch failed",
				slog.String("mechanism", r.Name()),
				slog.Int("page", page),
				slog.String("error", res.Err.Error()))
		default:
			allNoPage = false
		}

		if ctx.Err() != nil {
			return nil, false
		}
	}
	return nil, allNoPage
}

// process runs one payload through extraction, classification, and
// reconciliation, and harvests cluster markers and endpoint literals from
// it. It returns the number of new canonical records created.
func (c *Controller) process(ctx context.Context, payload *model.Payload, result *model.HarvestResult) int {
	if c.store != nil {
		if err := c.store.Put(ctx, payload); err != nil {
			c.logger.Warn("payload cache write failed",
				slog.String("source", payload.Source()),
				slog.String("error", err.Error()))
		}
	}
	if c.discoverer != nil {
		c.discoverer.Discover(payload.Body)
	}

	// Cluster markers are aggregates, not facilities: their coordinates
	// must be decomposed with sub-queries, never recorded directly.
	var markers []config.ClusterMarker
	markerKeys := make(map[model.CoordinateKey]struct{})
	if c.decomposer != nil {
		markers = extract.Clusters(payload.Body)
		for _, m := range markers {
			markerKeys[model.NewCoordinateKey(m.Latitude, m.Longitude, clusterMarkerPrecision)] = struct{}{}
		}
	}

	candidates := c.extractor.Extract(payload)
	result.Stats.AddMechanismPage(payload.Mechanism, len(candidates))

	created := 0
	for _, cand := range candidates {
		if _, isMarker := markerKeys[model.NewCoordinateKey(cand.Latitude, cand.Longitude, clusterMarkerPrecision)]; isMarker {
			continue
		}

		admissible, sub := c.classifier.Classify(cand.Latitude, cand.Longitude)
		if !admissible {
			result.Stats.Rejected++
			continue
		}
		result.Stats.Admissible++

		if c.reconciler.Add(model.Validated{Candidate: cand, Region: sub, Admissible: true}) {
			created++
			result.Stats.AddRegion(sub)
		} else {
			result.Stats.DuplicatesMerged++
		}
	}

	for _, m := range markers {
		if !c.reconciler.Seen(m.Latitude, m.Longitude) {
			c.decomposer.AddCluster(m)
		}
	}

	return created
}

// drainClusters processes the cluster sub-query queue after the listing
// walk. Sub-query payloads can themselves surface new markers, which the
// decomposer deduplicates, so the loop is bounded.
func (c *Controller) drainClusters(ctx context.Context, lastPage int, result *model.HarvestResult) {
	if c.decomposer == nil {
		return
	}

	page := lastPage + 1
	for c.decomposer.Pending() > 0 {
		if err := c.pause(ctx); err != nil {
			result.Interrupted = true
			return
		}

		res := c.decomposer.Fetch(ctx, page)
		switch res.Status {
		case retrieve.StatusOK:
			created := c.process(ctx, res.Payload, result)
			// A fruitless sub-query drops the marker's remaining schedule.
			c.decomposer.NoteOutcome(created)
			page++
		case retrieve.StatusNoPage:
			return
		case retrieve.StatusTransient:
			if ctx.Err() != nil {
				result.Interrupted = true
				return
			}
		}
	}
}

// finalize stamps the end time and takes the canonical set.
func (c *Controller) finalize(result *model.HarvestResult) {
	result.Records = c.reconciler.Finalize()
	result.FinishedAt = time.Now()
	c.logger.Info("traversal finished",
		slog.String("region", result.Region),
		slog.Int("records", len(result.Records)),
		slog.Int("pages_fetched", result.Stats.PagesFetched),
		slog.Int("duplicates_merged", result.Stats.DuplicatesMerged),
		slog.Bool("interrupted", result.Interrupted))
}

// pause waits the politeness delay, honoring cancellation.
func (c *Controller) pause(ctx context.Context) error {
	if c.pageDelay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.pageDelay):
		return nil
	}
}
