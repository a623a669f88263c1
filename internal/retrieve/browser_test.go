package retrieve

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// fakeDriver simulates a rendered pagination widget: selectors map to the
// page they navigate to, pages map to rendered documents.
type fakeDriver struct {
	pages     map[int]string
	selectors map[string]int
	current   int

	navigateErr     error
	failNativeClick bool

	navigations []string
	clicks      []string
	jsClicks    []string
}

func (d *fakeDriver) Navigate(ctx context.Context, url string) error {
	if d.navigateErr != nil {
		return d.navigateErr
	}
	d.navigations = append(d.navigations, url)
	d.current = 1
	return nil
}

func (d *fakeDriver) Exists(ctx context.Context, selector string) (bool, error) {
	_, ok := d.selectors[selector]
	return ok, nil
}

func (d *fakeDriver) Click(ctx context.Context, selector string) error {
	if d.failNativeClick {
		return errors.New("element not interactable")
	}
	d.clicks = append(d.clicks, selector)
	d.current = d.selectors[selector]
	return nil
}

func (d *fakeDriver) ClickJS(ctx context.Context, selector string) error {
	d.jsClicks = append(d.jsClicks, selector)
	d.current = d.selectors[selector]
	return nil
}

func (d *fakeDriver) HTML(ctx context.Context) (string, error) {
	return d.pages[d.current], nil
}

func (d *fakeDriver) Location(ctx context.Context) (string, error) {
	return "https://example.test/map", nil
}

func (d *fakeDriver) Close() error { return nil }

func renderedPage(n int) string {
	switch n {
	case 1:
		return `<html><body><div data-lat="31.2304" data-lng="121.4737" data-name="浦东数据中心"></div></body></html>`
	case 2:
		return `<html><body><div data-lat="31.2165" data-lng="121.4365" data-name="徐汇机房"></div></body></html>`
	default:
		return "<html><body></body></html>"
	}
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		pages: map[int]string{1: renderedPage(1), 2: renderedPage(2)},
		selectors: map[string]int{
			`a[data-page='2']`: 2,
		},
	}
}

func fastSettle() []InteractionOption {
	return []InteractionOption{
		WithSettleDelay(50 * time.Millisecond),
		WithSettleInterval(time.Millisecond),
	}
}

func TestSimulatedInteractionFetch(t *testing.T) {
	t.Parallel()

	t.Run("page 1 navigates and captures the rendered document", func(t *testing.T) {
		t.Parallel()
		d := newFakeDriver()
		s := NewSimulatedInteraction(d, "https://example.test/map", fastSettle()...)

		res := s.Fetch(context.Background(), 1)
		if res.Status != StatusOK {
			t.Fatalf("Status = %s, want ok", res.Status)
		}
		if !strings.Contains(res.Payload.Body, "浦东数据中心") {
			t.Errorf("payload missing page 1 content: %q", res.Payload.Body)
		}
		if res.Payload.Mechanism != MechanismInteraction {
			t.Errorf("Mechanism = %q, want %q", res.Payload.Mechanism, MechanismInteraction)
		}
		if len(d.navigations) != 1 {
			t.Errorf("navigations = %d, want 1", len(d.navigations))
		}
	})

	t.Run("page 2 clicks the numbered control", func(t *testing.T) {
		t.Parallel()
		d := newFakeDriver()
		s := NewSimulatedInteraction(d, "https://example.test/map", fastSettle()...)

		s.Fetch(context.Background(), 1)
		res := s.Fetch(context.Background(), 2)
		if res.Status != StatusOK {
			t.Fatalf("Status = %s, want ok", res.Status)
		}
		if !strings.Contains(res.Payload.Body, "徐汇机房") {
			t.Errorf("payload missing page 2 content: %q", res.Payload.Body)
		}
		if len(d.clicks) != 1 || d.clicks[0] != `a[data-page='2']` {
			t.Errorf("clicks = %v, want the data-page selector", d.clicks)
		}
	})

	t.Run("missing control means no_page", func(t *testing.T) {
		t.Parallel()
		d := newFakeDriver()
		s := NewSimulatedInteraction(d, "https://example.test/map", fastSettle()...)

		s.Fetch(context.Background(), 1)
		if res := s.Fetch(context.Background(), 7); res.Status != StatusNoPage {
			t.Errorf("Status = %s, want no_page", res.Status)
		}
	})

	t.Run("script click is the fallback for a blocked native click", func(t *testing.T) {
		t.Parallel()
		d := newFakeDriver()
		d.failNativeClick = true
		s := NewSimulatedInteraction(d, "https://example.test/map", fastSettle()...)

		s.Fetch(context.Background(), 1)
		res := s.Fetch(context.Background(), 2)
		if res.Status != StatusOK {
			t.Fatalf("Status = %s, want ok", res.Status)
		}
		if len(d.jsClicks) != 1 {
			t.Errorf("jsClicks = %v, want exactly one fallback click", d.jsClicks)
		}
	})

	t.Run("click that changes nothing is empty", func(t *testing.T) {
		t.Parallel()
		d := newFakeDriver()
		d.selectors[`a[data-page='2']`] = 1 // control loops back to page 1
		s := NewSimulatedInteraction(d, "https://example.test/map", fastSettle()...)

		s.Fetch(context.Background(), 1)
		if res := s.Fetch(context.Background(), 2); res.Status != StatusEmpty {
			t.Errorf("Status = %s, want empty", res.Status)
		}
	})

	t.Run("navigation failure is transient", func(t *testing.T) {
		t.Parallel()
		d := newFakeDriver()
		d.navigateErr = errors.New("net::ERR_CONNECTION_REFUSED")
		s := NewSimulatedInteraction(d, "https://example.test/map", fastSettle()...)

		res := s.Fetch(context.Background(), 1)
		if res.Status != StatusTransient {
			t.Fatalf("Status = %s, want transient", res.Status)
		}
		if res.Err == nil {
			t.Error("expected the underlying error on the result")
		}
	})
}
