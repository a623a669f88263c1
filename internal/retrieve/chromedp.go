package retrieve

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/idcmap/idcmap/internal/config"
)

// ChromeDriver implements Driver over a headless Chrome session using the
// DevTools protocol. One driver is one browser tab; create a fresh driver
// per traversal run.
type ChromeDriver struct {
	ctx         context.Context
	cancelCtx   context.CancelFunc
	cancelAlloc context.CancelFunc
}

// NewChromeDriver launches a headless browser and verifies it started.
// The parent context bounds the whole session lifetime; canceling it
// kills the browser.
func NewChromeDriver(parent context.Context, userAgent string) (*ChromeDriver, error) {
	if userAgent == "" {
		userAgent = config.DefaultUserAgent
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(userAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	browserCtx, cancelCtx := chromedp.NewContext(allocCtx)

	// Failure to launch the automation session is fatal for this
	// mechanism; the caller falls back to HTTP-only retrieval.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelCtx()
		cancelAlloc()
		return nil, fmt.Errorf("start browser session: %w", err)
	}

	return &ChromeDriver{
		ctx:         browserCtx,
		cancelCtx:   cancelCtx,
		cancelAlloc: cancelAlloc,
	}, nil
}

// run executes actions on the session, refusing immediately when the
// caller's context is already done. The session context governs the
// actions themselves.
func (d *ChromeDriver) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return chromedp.Run(d.ctx, actions...)
}

// Navigate loads the URL and waits for the document body.
func (d *ChromeDriver) Navigate(ctx context.Context, url string) error {
	return d.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

// Exists reports whether a node matches the selector without waiting for
// one to appear.
func (d *ChromeDriver) Exists(ctx context.Context, selector string) (bool, error) {
	var found bool
	script := fmt.Sprintf("document.querySelector(%q) !== null", selector)
	if isXPath(selector) {
		script = fmt.Sprintf(
			"document.evaluate(%q, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue !== null",
			selector)
	}
	if err := d.run(ctx, chromedp.Evaluate(script, &found)); err != nil {
		return false, err
	}
	return found, nil
}

// Click dispatches a native click on the first visible node matching the
// selector.
func (d *ChromeDriver) Click(ctx context.Context, selector string) error {
	if isXPath(selector) {
		return d.run(ctx, chromedp.Click(selector, chromedp.BySearch, chromedp.NodeVisible))
	}
	return d.run(ctx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
}

// ClickJS clicks the node via element.click() in page script. Pagination
// widgets that swallow synthetic pointer events usually still honor it.
func (d *ChromeDriver) ClickJS(ctx context.Context, selector string) error {
	var script string
	if isXPath(selector) {
		script = fmt.Sprintf(
			`(function() {
				const el = document.evaluate(%q, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
				if (!el) { return false; }
				el.click();
				return true;
			})()`, selector)
	} else {
		script = fmt.Sprintf(
			`(function() {
				const el = document.querySelector(%q);
				if (!el) { return false; }
				el.click();
				return true;
			})()`, selector)
	}

	var clicked bool
	if err := d.run(ctx, chromedp.Evaluate(script, &clicked)); err != nil {
		return err
	}
	if !clicked {
		return fmt.Errorf("no node for selector %s", selector)
	}
	return nil
}

// HTML returns the serialized current document.
func (d *ChromeDriver) HTML(ctx context.Context) (string, error) {
	var html string
	if err := d.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// Location returns the session's current URL.
func (d *ChromeDriver) Location(ctx context.Context) (string, error) {
	var loc string
	if err := d.run(ctx, chromedp.Location(&loc)); err != nil {
		return "", err
	}
	return loc, nil
}

// Close tears the browser session down.
func (d *ChromeDriver) Close() error {
	d.cancelCtx()
	d.cancelAlloc()
	return nil
}

func isXPath(selector string) bool {
	return strings.HasPrefix(selector, "//")
}
