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

// MechanismParametric is the provenance name of the URL-parameter mechanism.
const MechanismParametric = "parametric"

// defaultConventions are the query parameter names probed, in order, to
// find which one drives pagination on the target site.
var defaultConventions = []string{"page", "p", "pn", "offset"}

// defaultOffsetStep is the records-per-page assumption for offset-style
// pagination (offset = (page-1) * step).
const defaultOffsetStep = 20

// Parametric retrieves listing pages by appending a pagination query
// parameter to the start URL. It probes the conventional parameter names
// until one produces content the site has not already served, then keeps
// using the winning name for the rest of the run.
type Parametric struct {
	base        *url.URL
	client      *http.Client
	headers     Headers
	conventions []string
	offsetStep  int
	maxBody     int64
	logger      *slog.Logger

	// winner is the convention that produced fresh content, once known.
	winner string

	// served holds hashes of payloads already returned. A repeat means the
	// site ignored the parameter (or clamped an overflow page).
	served map[string]struct{}
}

// ParametricOption configures a Parametric retriever.
type ParametricOption func(*Parametric)

// WithParametricClient sets the HTTP client.
func WithParametricClient(c *http.Client) ParametricOption {
	return func(p *Parametric) { p.client = c }
}

// WithParametricHeaders sets the request headers.
func WithParametricHeaders(h Headers) ParametricOption {
	return func(p *Parametric) { p.headers = h }
}

// WithConventions overrides the probed parameter names.
func WithConventions(names []string) ParametricOption {
	return func(p *Parametric) { p.conventions = names }
}

// WithOffsetStep sets the records-per-page step for offset parameters.
func WithOffsetStep(step int) ParametricOption {
	return func(p *Parametric) { p.offsetStep = step }
}

// WithParametricLogger sets the logger.
func WithParametricLogger(l *slog.Logger) ParametricOption {
	return func(p *Parametric) { p.logger = l }
}

// WithParametricMaxBody caps the response body size in bytes.
func WithParametricMaxBody(n int64) ParametricOption {
	return func(p *Parametric) { p.maxBody = n }
}

// NewParametric creates a Parametric retriever for the given start URL.
func NewParametric(startURL string, opts ...ParametricOption) (*Parametric, error) {
	base, err := url.Parse(startURL)
	if err != nil {
		return nil, fmt.Errorf("parse start url: %w", err)
	}

	p := &Parametric{
		base:        base,
		client:      &http.Client{Timeout: config.DefaultTimeout},
		headers:     DefaultHeaders(),
		conventions: defaultConventions,
		offsetStep:  defaultOffsetStep,
		maxBody:     config.DefaultMaxBodySize,
		logger:      slog.Default(),
		served:      make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name returns the mechanism name.
func (p *Parametric) Name() string {
	return MechanismParametric
}

// Fetch retrieves page pageIndex. Page 1 is the start URL itself; later
// pages probe the pagination parameter conventions.
func (p *Parametric) Fetch(ctx context.Context, pageIndex int) Result {
	if pageIndex <= 1 {
		return p.fetchURL(ctx, p.base.String(), 1)
	}

	conventions := p.conventions
	if p.winner != "" {
		conventions = []string{p.winner}
	}

	var lastErr error
	sawTransient := false
	for _, conv := range conventions {
		res := p.fetchURL(ctx, p.pageURL(conv, pageIndex), pageIndex)
		switch res.Status {
		case StatusOK:
			if p.winner == "" {
				p.winner = conv
				p.logger.Debug("pagination parameter identified",
					slog.String("param", conv))
			}
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
	if p.winner != "" {
		// The known-good parameter now repeats content: the site clamps
		// overflow pages to the last page, so the listing is exhausted.
		return NoPage()
	}
	return Empty()
}

// pageURL builds the start URL with the pagination parameter set.
func (p *Parametric) pageURL(convention string, pageIndex int) string {
	u := *p.base
	q := u.Query()
	if convention == "offset" {
		q.Set(convention, strconv.Itoa((pageIndex-1)*p.offsetStep))
	} else {
		q.Set(convention, strconv.Itoa(pageIndex))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// fetchURL performs one GET and classifies the outcome.
func (p *Parametric) fetchURL(ctx context.Context, rawURL string, pageIndex int) Result {
	body, contentType, status, err := fetchBody(ctx, p.client, rawURL, p.headers, p.maxBody)
	if err != nil {
		return Transient(err)
	}
	if status >= http.StatusInternalServerError {
		return Transient(fmt.Errorf("server error: %s returned %d", rawURL, status))
	}
	if status >= http.StatusBadRequest {
		return Empty()
	}
	if len(body) < minUsefulBody {
		return Empty()
	}

	payload := model.NewPayload(MechanismParametric, pageIndex, rawURL, body)
	payload.ContentType = contentType
	if _, ok := p.served[payload.Hash]; ok {
		return Empty()
	}
	p.served[payload.Hash] = struct{}{}
	return OK(payload)
}
