package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/idcmap/idcmap/internal/model"
)

// MarkdownWriter outputs results in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full result in Markdown format.
func (w *MarkdownWriter) Write(result *model.HarvestResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, result)
	w.writeSummary(md, result)
	w.writeMechanisms(md, result)
	w.writeRecords(md, result)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, result *model.HarvestResult) {
	md.H1("Facility Harvest Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Region", result.Region},
			{"Start URL", "`" + result.StartURL + "`"},
			{"Started", result.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", result.FinishedAt.Sub(result.StartedAt).Round(time.Second).String()},
			{"Status", w.getStatusText(result)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on the run state.
func (w *MarkdownWriter) getStatusText(result *model.HarvestResult) string {
	if result.Interrupted {
		return "⚠️ Interrupted (partial results)"
	}
	return "✅ Complete"
}

// writeSummary writes the harvest summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, result *model.HarvestResult) {
	md.H2("Summary")
	md.PlainText("")

	s := result.Stats
	md.Table(markdown.TableSet{
		Header: []string{"Counter", "Value"},
		Rows: [][]string{
			{"Facilities", strconv.Itoa(len(result.Records))},
			{"Pages fetched", strconv.Itoa(s.PagesFetched) + " of " + strconv.Itoa(s.TotalPages)},
			{"Candidates extracted", strconv.Itoa(s.Candidates)},
			{"Admissible", strconv.Itoa(s.Admissible)},
			{"Rejected (out of region)", strconv.Itoa(s.Rejected)},
			{"Duplicates merged", strconv.Itoa(s.DuplicatesMerged)},
		},
	})
	md.PlainText("")

	if len(s.ByRegion) > 0 {
		w.writePieChart(md, result)
	}

	w.writeAlert(md, result)
}

// writePieChart writes a mermaid pie chart of the subdivision distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, result *model.HarvestResult) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Facilities by Subdivision"),
		piechart.WithShowData(true),
	)

	// Iterate records rather than the map so chart slices follow the
	// deterministic sequence order.
	counted := make(map[string]bool)
	for _, rec := range result.Records {
		if counted[rec.Region] {
			continue
		}
		counted[rec.Region] = true
		if n := result.Stats.ByRegion[rec.Region]; n > 0 {
			chart.LabelAndIntValue(rec.Region, uint64(n))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert reflecting the run outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, result *model.HarvestResult) {
	switch {
	case result.Interrupted:
		md.Warningf(
			"The run was interrupted before the traversal finished. %d facility record(s) were preserved.",
			len(result.Records),
		)
	case len(result.Records) == 0:
		md.Cautionf("No facility records were harvested. Check the start URL and the site configuration.")
	case result.Stats.DuplicatesMerged > 0:
		md.Note(fmt.Sprintf(
			"%d duplicate sighting(s) merged across retrieval mechanisms.",
			result.Stats.DuplicatesMerged,
		))
	default:
		md.Tip("Every extracted record was unique.")
	}
	md.PlainText("")
}

// writeMechanisms writes the per-mechanism activity table.
func (w *MarkdownWriter) writeMechanisms(md *markdown.Markdown, result *model.HarvestResult) {
	md.H2("Retrieval Mechanisms")
	md.PlainText("")

	if len(result.Stats.ByMechanism) == 0 {
		md.PlainText("No retrieval mechanism produced a payload.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(result.Stats.ByMechanism))
	for _, name := range []string{"parametric", "endpoint", "interaction", "cluster"} {
		ms, ok := result.Stats.ByMechanism[name]
		if !ok {
			continue
		}
		rows = append(rows, []string{name, strconv.Itoa(ms.Pages), strconv.Itoa(ms.Candidates)})
	}
	for name, ms := range result.Stats.ByMechanism {
		switch name {
		case "parametric", "endpoint", "interaction", "cluster":
			continue
		}
		rows = append(rows, []string{name, strconv.Itoa(ms.Pages), strconv.Itoa(ms.Candidates)})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Mechanism", "Pages", "Candidates"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeRecords writes the canonical record table.
func (w *MarkdownWriter) writeRecords(md *markdown.Markdown, result *model.HarvestResult) {
	md.H2("Facilities")
	md.PlainText("")

	if len(result.Records) == 0 {
		md.PlainText("No facilities recorded.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(result.Records))
	for i, rec := range result.Records {
		rows[i] = []string{
			strconv.Itoa(rec.SequenceIndex + 1),
			truncateString(rec.Name, 50),
			strconv.FormatFloat(rec.Latitude, 'f', 6, 64),
			strconv.FormatFloat(rec.Longitude, 'f', 6, 64),
			rec.Region,
			rec.FirstSeenSource,
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"#", "Name", "Latitude", "Longitude", "Subdivision", "First Seen"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [idcmap](https://github.com/idcmap/idcmap)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
