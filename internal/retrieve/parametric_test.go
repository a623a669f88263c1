package retrieve

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
)

// listingBody builds a distinct page body comfortably above the minimum
// useful length.
func listingBody(page int) string {
	return fmt.Sprintf("<html><body><ul class=%q><li>facility page %d</li></ul></body></html>",
		strings.Repeat("x", 80), page)
}

// pnServer paginates on the "pn" parameter, ignores the others, and
// clamps overflow pages to the last page the way real listings do.
func pnServer(t *testing.T, lastPage int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/list", func(w http.ResponseWriter, r *http.Request) {
		n, err := strconv.Atoi(r.URL.Query().Get("pn"))
		if err != nil || n < 1 {
			n = 1
		}
		if n > lastPage {
			n = lastPage
		}
		fmt.Fprint(w, listingBody(n))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestParametricFetch(t *testing.T) {
	t.Parallel()

	t.Run("page 1 is the start url itself", func(t *testing.T) {
		t.Parallel()
		srv := pnServer(t, 3)
		p, err := NewParametric(srv.URL + "/list")
		if err != nil {
			t.Fatal(err)
		}

		res := p.Fetch(context.Background(), 1)
		if res.Status != StatusOK {
			t.Fatalf("Status = %s, want ok", res.Status)
		}
		if res.Payload.Mechanism != MechanismParametric {
			t.Errorf("Mechanism = %q, want %q", res.Payload.Mechanism, MechanismParametric)
		}
		if res.Payload.PageIndex != 1 {
			t.Errorf("PageIndex = %d, want 1", res.Payload.PageIndex)
		}
	})

	t.Run("probing identifies the pagination parameter", func(t *testing.T) {
		t.Parallel()
		srv := pnServer(t, 3)
		p, err := NewParametric(srv.URL + "/list")
		if err != nil {
			t.Fatal(err)
		}

		p.Fetch(context.Background(), 1)
		res := p.Fetch(context.Background(), 2)
		if res.Status != StatusOK {
			t.Fatalf("Status = %s, want ok", res.Status)
		}
		if !strings.Contains(res.Payload.Body, "facility page 2") {
			t.Errorf("payload does not carry page 2 content: %q", res.Payload.Body)
		}
		if p.winner != "pn" {
			t.Errorf("winner = %q, want pn", p.winner)
		}
	})

	t.Run("overflow past the last page reports no_page", func(t *testing.T) {
		t.Parallel()
		srv := pnServer(t, 2)
		p, err := NewParametric(srv.URL + "/list")
		if err != nil {
			t.Fatal(err)
		}

		ctx := context.Background()
		p.Fetch(ctx, 1)
		if res := p.Fetch(ctx, 2); res.Status != StatusOK {
			t.Fatalf("page 2 Status = %s, want ok", res.Status)
		}
		// Page 3 clamps to page 2 server-side, repeating content.
		if res := p.Fetch(ctx, 3); res.Status != StatusNoPage {
			t.Errorf("page 3 Status = %s, want no_page", res.Status)
		}
	})

	t.Run("offset convention scales by the step", func(t *testing.T) {
		t.Parallel()
		mux := http.NewServeMux()
		mux.HandleFunc("/list", func(w http.ResponseWriter, r *http.Request) {
			off := r.URL.Query().Get("offset")
			if off == "" {
				off = "0"
			}
			fmt.Fprintf(w, "%s offset=%s", listingBody(1), off)
		})
		srv := httptest.NewServer(mux)
		t.Cleanup(srv.Close)

		p, err := NewParametric(srv.URL+"/list", WithConventions([]string{"offset"}), WithOffsetStep(40))
		if err != nil {
			t.Fatal(err)
		}
		p.Fetch(context.Background(), 1)
		res := p.Fetch(context.Background(), 3)
		if res.Status != StatusOK {
			t.Fatalf("Status = %s, want ok", res.Status)
		}
		if !strings.Contains(res.Payload.Body, "offset=80") {
			t.Errorf("expected offset=80 in body, got %q", res.Payload.Body)
		}
	})

	t.Run("server errors are transient", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		t.Cleanup(srv.Close)

		p, err := NewParametric(srv.URL)
		if err != nil {
			t.Fatal(err)
		}
		if res := p.Fetch(context.Background(), 1); res.Status != StatusTransient {
			t.Errorf("Status = %s, want transient", res.Status)
		}
	})

	t.Run("near-empty bodies are empty, not ok", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "{}")
		}))
		t.Cleanup(srv.Close)

		p, err := NewParametric(srv.URL)
		if err != nil {
			t.Fatal(err)
		}
		if res := p.Fetch(context.Background(), 1); res.Status != StatusEmpty {
			t.Errorf("Status = %s, want empty", res.Status)
		}
	})

	t.Run("unreachable host is transient", func(t *testing.T) {
		t.Parallel()
		p, err := NewParametric("http://127.0.0.1:1/list")
		if err != nil {
			t.Fatal(err)
		}
		if res := p.Fetch(context.Background(), 1); res.Status != StatusTransient {
			t.Errorf("Status = %s, want transient", res.Status)
		}
		if res := p.Fetch(context.Background(), 1); res.Err == nil {
			t.Error("expected transient result to carry the underlying error")
		}
	})
}

func TestStatusString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status Status
		want   string
	}{
		{StatusOK, "ok"},
		{StatusEmpty, "empty"},
		{StatusNoPage, "no_page"},
		{StatusTransient, "transient"},
		{Status(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}
