package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/idcmap/idcmap/internal/model"
)

// SummaryWriter outputs human-readable text summaries.
// This format is designed for terminal display at the end of a run.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SummaryWriter struct {
	baseWriter

	// verbose enables the per-record listing in addition to the counters.
	verbose bool
}

// SummaryWriterOption configures a SummaryWriter.
type SummaryWriterOption func(*SummaryWriter)

// WithVerbose enables verbose output with the full record listing.
func WithVerbose(verbose bool) SummaryWriterOption {
	return func(w *SummaryWriter) {
		w.verbose = verbose
	}
}

// NewSummaryWriter creates a SummaryWriter that outputs to the given writer.
func NewSummaryWriter(output io.Writer, opts ...SummaryWriterOption) *SummaryWriter {
	w := &SummaryWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run summary in human-readable form.
func (w *SummaryWriter) Write(result *model.HarvestResult) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, result)
	w.writeCounters(&sb, result)
	w.writeRegions(&sb, result)
	w.writeMechanisms(&sb, result)
	if w.verbose {
		w.writeRecords(&sb, result)
	}

	return io.WriteString(w.output, sb.String())
}

func (w *SummaryWriter) writeHeader(sb *strings.Builder, result *model.HarvestResult) {
	sb.WriteString("=== Harvest Summary ===\n")
	fmt.Fprintf(sb, "Region:    %s\n", result.Region)
	fmt.Fprintf(sb, "Start URL: %s\n", result.StartURL)
	if result.Interrupted {
		sb.WriteString("Status:    interrupted (partial results)\n")
	} else {
		sb.WriteString("Status:    complete\n")
	}
	sb.WriteString("\n")
}

func (w *SummaryWriter) writeCounters(sb *strings.Builder, result *model.HarvestResult) {
	s := result.Stats
	fmt.Fprintf(sb, "Facilities:        %d\n", len(result.Records))
	fmt.Fprintf(sb, "Pages fetched:     %d of %d\n", s.PagesFetched, s.TotalPages)
	fmt.Fprintf(sb, "Candidates:        %d\n", s.Candidates)
	fmt.Fprintf(sb, "Admissible:        %d\n", s.Admissible)
	fmt.Fprintf(sb, "Rejected:          %d\n", s.Rejected)
	fmt.Fprintf(sb, "Duplicates merged: %d\n", s.DuplicatesMerged)
	sb.WriteString("\n")
}

func (w *SummaryWriter) writeRegions(sb *strings.Builder, result *model.HarvestResult) {
	if len(result.Stats.ByRegion) == 0 {
		return
	}
	sb.WriteString("By subdivision:\n")

	// Walk records so subdivisions print in first-seen order.
	seen := make(map[string]bool)
	for _, rec := range result.Records {
		if seen[rec.Region] {
			continue
		}
		seen[rec.Region] = true
		fmt.Fprintf(sb, "  %-12s %d\n", rec.Region, result.Stats.ByRegion[rec.Region])
	}
	sb.WriteString("\n")
}

func (w *SummaryWriter) writeMechanisms(sb *strings.Builder, result *model.HarvestResult) {
	if len(result.Stats.ByMechanism) == 0 {
		return
	}
	sb.WriteString("By mechanism:\n")
	for _, name := range []string{"parametric", "endpoint", "interaction", "cluster"} {
		ms, ok := result.Stats.ByMechanism[name]
		if !ok {
			continue
		}
		fmt.Fprintf(sb, "  %-12s %d pages, %d candidates\n", name, ms.Pages, ms.Candidates)
	}
	sb.WriteString("\n")
}

func (w *SummaryWriter) writeRecords(sb *strings.Builder, result *model.HarvestResult) {
	if len(result.Records) == 0 {
		return
	}
	sb.WriteString("Records:\n")
	for _, rec := range result.Records {
		fmt.Fprintf(sb, "  %3d. %s (%.6f, %.6f) [%s]\n",
			rec.SequenceIndex+1, rec.Name, rec.Latitude, rec.Longitude, rec.Region)
	}
	sb.WriteString("\n")
}
