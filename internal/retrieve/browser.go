package retrieve

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/idcmap/idcmap/internal/config"
	"github.com/idcmap/idcmap/internal/model"
)

// MechanismInteraction is the provenance name of the simulated-interaction
// mechanism.
const MechanismInteraction = "interaction"

// Driver is the browser automation surface the simulated-interaction
// retriever runs against. The production implementation drives a headless
// Chrome session; tests substitute an in-memory fake.
type Driver interface {
	// Navigate loads the given URL in the session.
	Navigate(ctx context.Context, url string) error

	// Exists reports whether a node matches the selector. Selectors
	// starting with "//" are XPath, all others CSS.
	Exists(ctx context.Context, selector string) (bool, error)

	// Click dispatches a native click on the first node matching the
	// selector.
	Click(ctx context.Context, selector string) error

	// ClickJS clicks the node via injected JavaScript. Some pagination
	// widgets intercept native events but honor element.click().
	ClickJS(ctx context.Context, selector string) error

	// HTML returns the current serialized document.
	HTML(ctx context.Context) (string, error)

	// Location returns the session's current URL.
	Location(ctx context.Context) (string, error)

	// Close tears the session down.
	Close() error
}

// pageControlSelectors returns the selector strategies tried, in order,
// to locate the control for page n. Covers attribute-tagged controls and
// plain numbered links/buttons.
func pageControlSelectors(n int) []string {
	num := strconv.Itoa(n)
	return []string{
		`a[data-page='` + num + `']`,
		`button[data-page='` + num + `']`,
		`li[data-page='` + num + `'] a`,
		`//a[normalize-space(text())='` + num + `']`,
		`//button[normalize-space(text())='` + num + `']`,
		`//span[contains(@class,'page') and normalize-space(text())='` + num + `']`,
	}
}

// SimulatedInteraction retrieves listing pages by driving a real browser
// session: it navigates to the start URL, clicks pagination controls, and
// reads back the rendered document after each transition. This is the
// last-resort mechanism for listings that render entirely client-side.
type SimulatedInteraction struct {
	driver         Driver
	startURL       string
	settleDelay    time.Duration
	settleInterval time.Duration
	logger         *slog.Logger

	navigated bool
	lastHash  string
}

// InteractionOption configures a SimulatedInteraction retriever.
type InteractionOption func(*SimulatedInteraction)

// WithSettleDelay caps how long to wait for the rendered document to
// stop changing after a click or navigation.
func WithSettleDelay(d time.Duration) InteractionOption {
	return func(s *SimulatedInteraction) { s.settleDelay = d }
}

// WithSettleInterval sets the polling interval of the settle loop.
func WithSettleInterval(d time.Duration) InteractionOption {
	return func(s *SimulatedInteraction) { s.settleInterval = d }
}

// WithInteractionLogger sets the logger.
func WithInteractionLogger(l *slog.Logger) InteractionOption {
	return func(s *SimulatedInteraction) { s.logger = l }
}

// NewSimulatedInteraction creates a SimulatedInteraction retriever over
// the given driver. The driver's lifetime is the caller's to manage.
func NewSimulatedInteraction(driver Driver, startURL string, opts ...InteractionOption) *SimulatedInteraction {
	s := &SimulatedInteraction{
		driver:         driver,
		startURL:       startURL,
		settleDelay:    config.DefaultSettleDelay,
		settleInterval: config.DefaultSettleInterval,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the mechanism name.
func (s *SimulatedInteraction) Name() string {
	return MechanismInteraction
}

// Fetch renders page pageIndex. Page 1 navigates to the start URL; later
// pages locate and click the numbered pagination control.
func (s *SimulatedInteraction) Fetch(ctx context.Context, pageIndex int) Result {
	if pageIndex <= 1 || !s.navigated {
		if err := s.driver.Navigate(ctx, s.startURL); err != nil {
			return Transient(fmt.Errorf("navigate: %w", err))
		}
		s.navigated = true
		if pageIndex <= 1 {
			return s.capture(ctx, 1)
		}
	}

	selector, err := s.findControl(ctx, pageIndex)
	if err != nil {
		return Transient(err)
	}
	if selector == "" {
		// No control for this page number anywhere in the document: the
		// pagination widget ends here.
		return NoPage()
	}

	if err := s.driver.Click(ctx, selector); err != nil {
		s.logger.Debug("native click failed, retrying via script",
			slog.String("selector", selector),
			slog.String("error", err.Error()))
		if err := s.driver.ClickJS(ctx, selector); err != nil {
			return Transient(fmt.Errorf("click %s: %w", selector, err))
		}
	}

	return s.capture(ctx, pageIndex)
}

// findControl returns the first selector strategy that matches a node, or
// "" when none do.
func (s *SimulatedInteraction) findControl(ctx context.Context, pageIndex int) (string, error) {
	for _, sel := range pageControlSelectors(pageIndex) {
		ok, err := s.driver.Exists(ctx, sel)
		if err != nil {
			return "", fmt.Errorf("probe %s: %w", sel, err)
		}
		if ok {
			return sel, nil
		}
	}
	return "", nil
}

// capture waits for the document to settle, then returns it as a payload.
// Settling means two consecutive samples hash identically; the wait is
// bounded by the settle delay so a page with a ticking widget cannot
// stall the run.
func (s *SimulatedInteraction) capture(ctx context.Context, pageIndex int) Result {
	deadline := time.Now().Add(s.settleDelay)
	var html, prevHash string

	for {
		var err error
		html, err = s.driver.HTML(ctx)
		if err != nil {
			return Transient(fmt.Errorf("read document: %w", err))
		}
		hash := model.HashBody(html)
		if hash == prevHash || time.Now().After(deadline) {
			break
		}
		prevHash = hash

		select {
		case <-ctx.Done():
			return Transient(ctx.Err())
		case <-time.After(s.settleInterval):
		}
	}

	loc, err := s.driver.Location(ctx)
	if err != nil {
		loc = s.startURL
	}

	payload := model.NewPayload(MechanismInteraction, pageIndex, loc, html)
	payload.ContentType = "text/html"
	if payload.Hash == s.lastHash {
		// The click changed nothing the renderer shows. Treat as an
		// empty page rather than re-extracting identical content.
		return Empty()
	}
	s.lastHash = payload.Hash
	return OK(payload)
}
