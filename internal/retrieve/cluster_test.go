package retrieve

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/idcmap/idcmap/internal/config"
)

func TestClusterDecomposerQueue(t *testing.T) {
	t.Parallel()

	d, err := NewClusterDecomposer("https://example.test/map", WithClusterBudget(3))
	if err != nil {
		t.Fatal(err)
	}

	marker := config.ClusterMarker{Latitude: 31.23, Longitude: 121.47, Count: 17}
	if !d.AddCluster(marker) {
		t.Fatal("expected first marker to enqueue")
	}
	if d.Pending() != 3 {
		t.Errorf("Pending() = %d, want one sub-query per budget step", d.Pending())
	}

	// A marker at effectively the same coordinate is the same cluster.
	if d.AddCluster(config.ClusterMarker{Latitude: 31.230004, Longitude: 121.470001, Count: 17}) {
		t.Error("expected near-identical marker to be deduplicated")
	}
	if d.Pending() != 3 {
		t.Errorf("Pending() = %d after duplicate, want 3", d.Pending())
	}

	// The schedule zooms in and halves the radius each step.
	for i, sq := range d.queue {
		if sq.zoom != defaultClusterZoom+i {
			t.Errorf("queue[%d].zoom = %d, want %d", i, sq.zoom, defaultClusterZoom+i)
		}
	}
	if d.queue[1].radius >= d.queue[0].radius {
		t.Error("expected radius to shrink between attempts")
	}
}

func TestClusterDecomposerNoteOutcome(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/locations", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"zoom":%q,"items":[],"padding":%q}`, r.URL.Query().Get("zoom"), strings.Repeat("x", 80))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	newDecomposer := func(t *testing.T) *ClusterDecomposer {
		t.Helper()
		d, err := NewClusterDecomposer(srv.URL+"/map",
			WithClusterPaths([]string{"/api/v1/locations"}),
			WithClusterBudget(3))
		if err != nil {
			t.Fatal(err)
		}
		return d
	}

	t.Run("fruitless sub-query drops the marker's schedule", func(t *testing.T) {
		t.Parallel()
		d := newDecomposer(t)

		// Before any fetch the call is a no-op.
		d.NoteOutcome(0)

		d.AddCluster(config.ClusterMarker{Latitude: 31.23, Longitude: 121.47, Count: 9})
		if res := d.Fetch(context.Background(), 2); res.Status != StatusOK {
			t.Fatalf("Status = %s, want ok", res.Status)
		}
		d.NoteOutcome(0)
		if d.Pending() != 0 {
			t.Errorf("Pending() = %d, want 0 after a fruitless sub-query", d.Pending())
		}
	})

	t.Run("productive sub-query keeps the schedule", func(t *testing.T) {
		t.Parallel()
		d := newDecomposer(t)
		d.AddCluster(config.ClusterMarker{Latitude: 31.23, Longitude: 121.47, Count: 9})
		if res := d.Fetch(context.Background(), 2); res.Status != StatusOK {
			t.Fatalf("Status = %s, want ok", res.Status)
		}
		d.NoteOutcome(4)
		if d.Pending() != 2 {
			t.Errorf("Pending() = %d, want 2 remaining sub-queries", d.Pending())
		}
	})

	t.Run("other markers keep their schedules", func(t *testing.T) {
		t.Parallel()
		d := newDecomposer(t)
		d.AddCluster(config.ClusterMarker{Latitude: 31.23, Longitude: 121.47, Count: 9})
		d.AddCluster(config.ClusterMarker{Latitude: 22.54, Longitude: 114.05, Count: 5})

		// The first sub-query belongs to the first marker.
		if res := d.Fetch(context.Background(), 2); res.Status != StatusOK {
			t.Fatalf("Status = %s, want ok", res.Status)
		}
		d.NoteOutcome(0)
		if d.Pending() != 3 {
			t.Errorf("Pending() = %d, want the second marker's 3 sub-queries", d.Pending())
		}
		for _, sq := range d.queue {
			if sq.lat != 22.54 {
				t.Errorf("queued sub-query for lat %v, want only second-marker queries", sq.lat)
			}
		}
	})
}

func TestClusterDecomposerFetch(t *testing.T) {
	t.Parallel()

	t.Run("sub-queries carry area bounds and zoom", func(t *testing.T) {
		t.Parallel()
		var zooms []string
		mux := http.NewServeMux()
		mux.HandleFunc("/api/v1/locations", func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			zooms = append(zooms, q.Get("zoom"))
			for _, p := range []string{"north", "south", "east", "west", "lat", "lng", "radius"} {
				if q.Get(p) == "" {
					t.Errorf("missing %s parameter", p)
				}
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"zoom":%q,"items":[],"padding":%q}`, q.Get("zoom"), strings.Repeat("x", 80))
		})
		srv := httptest.NewServer(mux)
		t.Cleanup(srv.Close)

		d, err := NewClusterDecomposer(srv.URL+"/map",
			WithClusterPaths([]string{"/api/v1/locations"}),
			WithClusterBudget(2))
		if err != nil {
			t.Fatal(err)
		}
		d.AddCluster(config.ClusterMarker{Latitude: 31.23, Longitude: 121.47, Count: 9})

		ctx := context.Background()
		if res := d.Fetch(ctx, 3); res.Status != StatusOK {
			t.Fatalf("first sub-query Status = %s, want ok", res.Status)
		}
		if res := d.Fetch(ctx, 3); res.Status != StatusOK {
			t.Fatalf("second sub-query Status = %s, want ok", res.Status)
		}
		if len(zooms) != 2 || zooms[0] == zooms[1] {
			t.Errorf("zooms = %v, want two increasing zoom levels", zooms)
		}
	})

	t.Run("drained queue reports no_page", func(t *testing.T) {
		t.Parallel()
		d, err := NewClusterDecomposer("https://example.test/map")
		if err != nil {
			t.Fatal(err)
		}
		if res := d.Fetch(context.Background(), 1); res.Status != StatusNoPage {
			t.Errorf("Status = %s, want no_page", res.Status)
		}
	})

	t.Run("payload carries the cluster mechanism tag", func(t *testing.T) {
		t.Parallel()
		mux := http.NewServeMux()
		mux.HandleFunc("/api/v1/locations/clusters", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `{"items":[],"padding":%q}`, strings.Repeat("x", 80))
		})
		srv := httptest.NewServer(mux)
		t.Cleanup(srv.Close)

		d, err := NewClusterDecomposer(srv.URL + "/map")
		if err != nil {
			t.Fatal(err)
		}
		d.AddCluster(config.ClusterMarker{Latitude: 22.54, Longitude: 114.05, Count: 5})

		res := d.Fetch(context.Background(), 2)
		if res.Status != StatusOK {
			t.Fatalf("Status = %s, want ok", res.Status)
		}
		if res.Payload.Source() != "cluster/page2" {
			t.Errorf("Source() = %q, want cluster/page2", res.Payload.Source())
		}
	})
}
