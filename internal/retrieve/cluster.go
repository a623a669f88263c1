package retrieve

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/idcmap/idcmap/internal/config"
	"github.com/idcmap/idcmap/internal/model"
)

// MechanismCluster is the provenance name of the cluster-decomposition
// mechanism.
const MechanismCluster = "cluster"

// Map-backed directories aggregate nearby facilities into cluster markers
// ("17 facilities here") that hide the individual coordinates. The
// decomposer re-queries the area under each marker at increasing zoom and
// shrinking radius until the sub-queries stop yielding new records or the
// per-marker budget runs out.

// defaultClusterZoom is the zoom level of the first sub-query; each
// following attempt zooms one level deeper and halves the radius.
const (
	defaultClusterZoom   = 12
	defaultClusterRadius = 0.05

	// markerDedupPrecision keys already-enqueued markers so the same
	// cluster found on several pages is decomposed once.
	markerDedupPrecision = 4
)

// defaultClusterPaths are the endpoint paths queried per sub-query.
var defaultClusterPaths = []string{
	"/api/v1/locations/clusters",
	"/api/v1/locations",
	"/api/markers",
}

// subQuery is one bounded-area query derived from a cluster marker.
type subQuery struct {
	lat, lng float64
	radius   float64
	zoom     int

	// marker keys the sub-query back to the cluster it decomposes.
	marker model.CoordinateKey
}

// ClusterDecomposer retrieves facility records hidden inside aggregated
// map markers. Markers are enqueued with AddCluster as other mechanisms
// surface them; Fetch drains the sub-query queue.
type ClusterDecomposer struct {
	base    *url.URL
	client  *http.Client
	headers Headers
	paths   []string
	budget  int
	maxBody int64
	logger  *slog.Logger

	queue  []subQuery
	served map[string]struct{}
	seen   map[model.CoordinateKey]struct{}

	// lastMarker identifies the marker behind the most recent successful
	// sub-query, so NoteOutcome can drop its remaining schedule.
	lastMarker model.CoordinateKey
	hasLast    bool
}

// ClusterOption configures a ClusterDecomposer.
type ClusterOption func(*ClusterDecomposer)

// WithClusterClient sets the HTTP client.
func WithClusterClient(c *http.Client) ClusterOption {
	return func(d *ClusterDecomposer) { d.client = c }
}

// WithClusterHeaders sets the request headers.
func WithClusterHeaders(h Headers) ClusterOption {
	return func(d *ClusterDecomposer) { d.headers = h }
}

// WithClusterPaths replaces the endpoint paths queried per sub-query.
func WithClusterPaths(paths []string) ClusterOption {
	return func(d *ClusterDecomposer) { d.paths = paths }
}

// WithClusterBudget caps the sub-queries spent per marker.
func WithClusterBudget(n int) ClusterOption {
	return func(d *ClusterDecomposer) { d.budget = n }
}

// WithClusterLogger sets the logger.
func WithClusterLogger(l *slog.Logger) ClusterOption {
	return func(d *ClusterDecomposer) { d.logger = l }
}

// WithClusterMaxBody caps the response body size in bytes.
func WithClusterMaxBody(n int64) ClusterOption {
	return func(d *ClusterDecomposer) { d.maxBody = n }
}

// NewClusterDecomposer creates a ClusterDecomposer rooted at the start
// URL's origin.
func NewClusterDecomposer(startURL string, opts ...ClusterOption) (*ClusterDecomposer, error) {
	base, err := url.Parse(startURL)
	if err != nil {
		return nil, fmt.Errorf("parse start url: %w", err)
	}

	d := &ClusterDecomposer{
		base:    base,
		client:  &http.Client{Timeout: config.DefaultTimeout},
		headers: DefaultHeaders(),
		paths:   defaultClusterPaths,
		budget:  config.DefaultRetryBudget,
		maxBody: config.DefaultMaxBodySize,
		logger:  slog.Default(),
		served:  make(map[string]struct{}),
		seen:    make(map[model.CoordinateKey]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Name returns the mechanism name.
func (d *ClusterDecomposer) Name() string {
	return MechanismCluster
}

// AddCluster enqueues the sub-query schedule for one marker: budget
// attempts at increasing zoom and halving radius. A marker already seen
// at the dedup precision is ignored. It returns true when enqueued.
func (d *ClusterDecomposer) AddCluster(m config.ClusterMarker) bool {
	key := model.NewCoordinateKey(m.Latitude, m.Longitude, markerDedupPrecision)
	if _, ok := d.seen[key]; ok {
		return false
	}
	d.seen[key] = struct{}{}

	radius := defaultClusterRadius
	for i := 0; i < d.budget; i++ {
		d.queue = append(d.queue, subQuery{
			lat:    m.Latitude,
			lng:    m.Longitude,
			radius: radius,
			zoom:   defaultClusterZoom + i,
			marker: key,
		})
		radius /= 2
	}
	d.logger.Debug("cluster marker enqueued",
		slog.Float64("lat", m.Latitude),
		slog.Float64("lng", m.Longitude),
		slog.Int("count", m.Count))
	return true
}

// Pending returns the number of queued sub-queries.
func (d *ClusterDecomposer) Pending() int {
	return len(d.queue)
}

// NoteOutcome reports how many new records the most recent successful
// sub-query produced. A sub-query that added nothing new means its
// marker's cluster has resolved as far as it ever will, so the marker's
// remaining schedule is dropped instead of spending the rest of the
// budget on the same area.
func (d *ClusterDecomposer) NoteOutcome(created int) {
	if !d.hasLast {
		return
	}
	d.hasLast = false
	if created > 0 {
		return
	}

	kept := d.queue[:0]
	dropped := 0
	for _, sq := range d.queue {
		if sq.marker == d.lastMarker {
			dropped++
			continue
		}
		kept = append(kept, sq)
	}
	d.queue = kept
	if dropped > 0 {
		d.logger.Debug("cluster marker resolved, dropping remaining sub-queries",
			slog.Int("dropped", dropped))
	}
}

// Fetch runs the next queued sub-query. The pageIndex is provenance only;
// the queue determines what is fetched. NoPage means the queue is empty.
func (d *ClusterDecomposer) Fetch(ctx context.Context, pageIndex int) Result {
	if len(d.queue) == 0 {
		return NoPage()
	}
	sq := d.queue[0]
	d.queue = d.queue[1:]

	var lastErr error
	sawTransient := false
	for _, path := range d.paths {
		res := d.fetchArea(ctx, path, sq, pageIndex)
		switch res.Status {
		case StatusOK:
			d.lastMarker = sq.marker
			d.hasLast = true
			return res
		case StatusTransient:
			sawTransient = true
			lastErr = res.Err
		}
		if ctx.Err() != nil {
			return Transient(ctx.Err())
		}
	}

	if sawTransient {
		return Transient(lastErr)
	}
	return Empty()
}

// fetchArea queries one endpoint for the bounded area of a sub-query.
// Both bounds-style (north/south/east/west) and center-style
// (lat/lng/radius) parameters are sent; sites read whichever they use.
func (d *ClusterDecomposer) fetchArea(ctx context.Context, path string, sq subQuery, pageIndex int) Result {
	ref, err := url.Parse(path)
	if err != nil {
		return Empty()
	}
	u := d.base.ResolveReference(ref)
	q := u.Query()
	q.Set("north", formatCoord(sq.lat+sq.radius))
	q.Set("south", formatCoord(sq.lat-sq.radius))
	q.Set("east", formatCoord(sq.lng+sq.radius))
	q.Set("west", formatCoord(sq.lng-sq.radius))
	q.Set("lat", formatCoord(sq.lat))
	q.Set("lng", formatCoord(sq.lng))
	q.Set("radius", formatCoord(sq.radius))
	q.Set("zoom", strconv.Itoa(sq.zoom))
	u.RawQuery = q.Encode()

	body, contentType, status, err := fetchBody(ctx, d.client, u.String(), d.headers, d.maxBody)
	if err != nil {
		return Transient(err)
	}
	if status >= http.StatusInternalServerError {
		return Transient(fmt.Errorf("server error: %s returned %d", u, status))
	}
	if status >= http.StatusBadRequest {
		return Empty()
	}
	if len(body) < minUsefulBody {
		return Empty()
	}

	payload := model.NewPayload(MechanismCluster, pageIndex, u.String(), body)
	payload.ContentType = contentType
	if _, ok := d.served[payload.Hash]; ok {
		return Empty()
	}
	d.served[payload.Hash] = struct{}{}
	return OK(payload)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
