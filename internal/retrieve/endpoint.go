package retrieve

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"

	"github.com/idcmap/idcmap/internal/config"
	"github.com/idcmap/idcmap/internal/model"
)

// MechanismEndpoint is the provenance name of the background-endpoint
// mechanism.
const MechanismEndpoint = "endpoint"

// defaultProbePaths are data endpoints commonly exposed by map-backed
// directory sites, probed when the page markup reveals nothing better.
var defaultProbePaths = []string{
	"/api/v1/locations/clusters",
	"/api/v1/locations",
	"/api/locations",
	"/api/markers",
	"/data/locations.json",
}

// endpointLiteralPattern matches path literals embedded in scripts or
// markup that look like data endpoints. Only same-origin absolute paths
// are considered; cross-origin APIs need credentials this tool does not
// carry.
var endpointLiteralPattern = regexp.MustCompile(
	`["'](/[A-Za-z0-9_\-./]*(?:api|locations|clusters|markers|search|query|list)[A-Za-z0-9_\-./]*)["']`)

// BackgroundEndpoint retrieves listing data by calling the JSON/data
// endpoints the site's own scripts use, bypassing client-side rendering
// entirely. Endpoints come from two sources: literals discovered in
// previously fetched payloads, and a built-in probe list.
type BackgroundEndpoint struct {
	base      *url.URL
	client    *http.Client
	headers   Headers
	endpoints []string
	pageSize  int
	maxBody   int64
	logger    *slog.Logger

	// winner indexes the endpoint that last produced content, tried first
	// on subsequent pages.
	winner int

	// served holds hashes of payloads already returned.
	served map[string]struct{}

	known map[string]struct{}
}

// EndpointOption configures a BackgroundEndpoint retriever.
type EndpointOption func(*BackgroundEndpoint)

// WithEndpointClient sets the HTTP client.
func WithEndpointClient(c *http.Client) EndpointOption {
	return func(b *BackgroundEndpoint) { b.client = c }
}

// WithEndpointHeaders sets the request headers.
func WithEndpointHeaders(h Headers) EndpointOption {
	return func(b *BackgroundEndpoint) { b.headers = h }
}

// WithProbePaths replaces the built-in endpoint probe list.
func WithProbePaths(paths []string) EndpointOption {
	return func(b *BackgroundEndpoint) {
		b.endpoints = nil
		b.known = make(map[string]struct{})
		for _, p := range paths {
			b.add(p)
		}
	}
}

// WithPageSize sets the records-per-page assumption used for the limit
// and offset query parameters.
func WithPageSize(n int) EndpointOption {
	return func(b *BackgroundEndpoint) { b.pageSize = n }
}

// WithEndpointLogger sets the logger.
func WithEndpointLogger(l *slog.Logger) EndpointOption {
	return func(b *BackgroundEndpoint) { b.logger = l }
}

// WithEndpointMaxBody caps the response body size in bytes.
func WithEndpointMaxBody(n int64) EndpointOption {
	return func(b *BackgroundEndpoint) { b.maxBody = n }
}

// NewBackgroundEndpoint creates a BackgroundEndpoint retriever rooted at
// the start URL's origin.
func NewBackgroundEndpoint(startURL string, opts ...EndpointOption) (*BackgroundEndpoint, error) {
	base, err := url.Parse(startURL)
	if err != nil {
		return nil, fmt.Errorf("parse start url: %w", err)
	}

	b := &BackgroundEndpoint{
		base:     base,
		client:   &http.Client{Timeout: config.DefaultTimeout},
		headers:  DefaultHeaders(),
		pageSize: defaultOffsetStep,
		maxBody:  config.DefaultMaxBodySize,
		logger:   slog.Default(),
		served:   make(map[string]struct{}),
		known:    make(map[string]struct{}),
	}
	for _, p := range defaultProbePaths {
		b.add(p)
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Name returns the mechanism name.
func (b *BackgroundEndpoint) Name() string {
	return MechanismEndpoint
}

// Discover scans a payload body for endpoint-like path literals and adds
// the new ones to the probe set. It returns how many were added.
// Discovered endpoints are tried before the built-in probe list.
func (b *BackgroundEndpoint) Discover(body string) int {
	added := 0
	var found []string
	for _, m := range endpointLiteralPattern.FindAllStringSubmatch(body, -1) {
		path := m[1]
		if _, ok := b.known[path]; ok {
			continue
		}
		b.known[path] = struct{}{}
		found = append(found, path)
		added++
	}
	if added > 0 {
		// Page-sourced endpoints outrank guesses from the probe list.
		b.endpoints = append(found, b.endpoints...)
		b.winner = 0
		b.logger.Debug("endpoints discovered in payload",
			slog.Int("count", added))
	}
	return added
}

func (b *BackgroundEndpoint) add(path string) {
	if _, ok := b.known[path]; ok {
		return
	}
	b.known[path] = struct{}{}
	b.endpoints = append(b.endpoints, path)
}

// Fetch queries the known endpoints for page pageIndex, preferring the
// endpoint that produced content last time. JSON responses are taken as
// authoritative; markup responses are still returned for extraction.
func (b *BackgroundEndpoint) Fetch(ctx context.Context, pageIndex int) Result {
	if len(b.endpoints) == 0 {
		return NoPage()
	}

	order := make([]int, 0, len(b.endpoints))
	order = append(order, b.winner)
	for i := range b.endpoints {
		if i != b.winner {
			order = append(order, i)
		}
	}

	var lastErr error
	sawTransient := false
	for _, i := range order {
		res := b.fetchEndpoint(ctx, b.endpoints[i], pageIndex)
		switch res.Status {
		case StatusOK:
			b.winner = i
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

// fetchEndpoint performs one endpoint GET and classifies the outcome.
func (b *BackgroundEndpoint) fetchEndpoint(ctx context.Context, path string, pageIndex int) Result {
	ref, err := url.Parse(path)
	if err != nil {
		return Empty()
	}
	u := b.base.ResolveReference(ref)
	q := u.Query()
	q.Set("page", strconv.Itoa(pageIndex))
	q.Set("limit", strconv.Itoa(b.pageSize))
	q.Set("offset", strconv.Itoa((pageIndex-1)*b.pageSize))
	u.RawQuery = q.Encode()

	body, contentType, status, err := fetchBody(ctx, b.client, u.String(), b.headers, b.maxBody)
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

	payload := model.NewPayload(MechanismEndpoint, pageIndex, u.String(), body)
	payload.ContentType = contentType
	if _, ok := b.served[payload.Hash]; ok {
		return Empty()
	}
	b.served[payload.Hash] = struct{}{}
	return OK(payload)
}
