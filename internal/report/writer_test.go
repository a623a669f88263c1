package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/idcmap/idcmap/internal/model"
)

func sampleResult() *model.HarvestResult {
	started := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	return &model.HarvestResult{
		Region:   "shanghai",
		StartURL: "https://example.test/list",
		Records: []*model.Canonical{
			{
				Key:             model.NewCoordinateKey(31.2304, 121.4737, 5),
				Latitude:        31.2304,
				Longitude:       121.4737,
				Name:            "Example IDC",
				Region:          "黄浦区",
				FirstSeenSource: "parametric/page1",
				SequenceIndex:   0,
				Duplicates:      1,
			},
			{
				Key:             model.NewCoordinateKey(31.1979, 121.3263, 5),
				Latitude:        31.1979,
				Longitude:       121.3263,
				Name:            "虹桥数据中心",
				Region:          "闵行区",
				FirstSeenSource: "cluster/page3",
				SequenceIndex:   1,
			},
		},
		Stats: model.HarvestStats{
			TotalPages:       2,
			PagesFetched:     2,
			Candidates:       3,
			Admissible:       3,
			DuplicatesMerged: 1,
			ByMechanism: map[string]*model.MechanismStats{
				"parametric": {Pages: 1, Candidates: 2},
				"cluster":    {Pages: 1, Candidates: 1},
			},
			ByRegion: map[string]int{"黄浦区": 1, "闵行区": 1},
		},
		StartedAt:  started,
		FinishedAt: started.Add(42 * time.Second),
	}
}

func TestCSVWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewCSVWriter(&buf).Write(sampleResult()); err != nil {
		t.Fatal(err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header plus 2 records", len(rows))
	}
	if rows[0][1] != "名称" {
		t.Errorf("header[1] = %q, want 名称", rows[0][1])
	}
	if rows[1][1] != "Example IDC" || rows[1][2] != "31.230400" {
		t.Errorf("row 1 = %v", rows[1])
	}
	if rows[2][4] != "闵行区" {
		t.Errorf("row 2 subdivision = %q, want 闵行区", rows[2][4])
	}
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("round trip preserves the record set", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(sampleResult()); err != nil {
			t.Fatal(err)
		}

		var got model.HarvestResult
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatal(err)
		}
		if len(got.Records) != 2 {
			t.Fatalf("got %d records, want 2", len(got.Records))
		}
		if got.Records[0].Name != "Example IDC" {
			t.Errorf("Records[0].Name = %q", got.Records[0].Name)
		}
		if got.Stats.DuplicatesMerged != 1 {
			t.Errorf("DuplicatesMerged = %d, want 1", got.Stats.DuplicatesMerged)
		}
	})

	t.Run("full writer wraps with version metadata", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if _, err := NewFullJSONWriter(&buf, "1.2.3", WithPrettyPrint()).Write(sampleResult()); err != nil {
			t.Fatal(err)
		}

		var got JSONReport
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatal(err)
		}
		if got.Version != "1.2.3" {
			t.Errorf("Version = %q, want 1.2.3", got.Version)
		}
		if got.Result == nil || len(got.Result.Records) != 2 {
			t.Error("wrapped result missing records")
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(sampleResult()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"# Facility Harvest Report",
		"## Summary",
		"## Retrieval Mechanisms",
		"## Facilities",
		"Example IDC",
		"虹桥数据中心",
		"```mermaid",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown output missing %q", want)
		}
	}
}

func TestSummaryWriter(t *testing.T) {
	t.Parallel()

	t.Run("default output carries the counters", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if _, err := NewSummaryWriter(&buf).Write(sampleResult()); err != nil {
			t.Fatal(err)
		}
		out := buf.String()

		if !strings.Contains(out, "Facilities:        2") {
			t.Errorf("summary missing facility count:\n%s", out)
		}
		if strings.Contains(out, "Example IDC") {
			t.Error("non-verbose summary should not list records")
		}
	})

	t.Run("verbose output lists records", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if _, err := NewSummaryWriter(&buf, WithVerbose(true)).Write(sampleResult()); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "Example IDC") {
			t.Error("verbose summary missing the record listing")
		}
	})
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	mw := NewMultiWriter(NewSummaryWriter(&a), NewJSONWriter(&b))
	if _, err := mw.Write(sampleResult()); err != nil {
		t.Fatal(err)
	}
	if a.Len() == 0 || b.Len() == 0 {
		t.Error("expected both writers to receive output")
	}
}

func TestSink(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	paths, err := NewSink(dir, "test").Write(sampleResult())
	if err != nil {
		t.Fatal(err)
	}

	for _, p := range []string{paths.CSV, paths.JSON, paths.Markdown} {
		info, err := os.Stat(p)
		if err != nil {
			t.Fatalf("missing output file: %v", err)
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", p)
		}
	}
	if !strings.Contains(paths.CSV, "shanghai_datacenters_20260830_100000.csv") {
		t.Errorf("CSV path = %q, want the region/timestamp naming", paths.CSV)
	}
}
