package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/idcmap/idcmap/internal/model"
)

// csvHeader is the column set of the CSV output. Chinese column names
// match what downstream map-plotting tools in this toolchain expect.
var csvHeader = []string{"序号", "名称", "纬度", "经度", "行政区", "来源", "重复次数"}

// CSVWriter outputs the canonical record set as CSV.
// This format is designed for spreadsheet import and GIS tools.
//
// Design decision: We use the standard library encoding/csv because the
// output is a plain rectangular table; it handles quoting of names with
// embedded commas, which facility names occasionally contain.
type CSVWriter struct {
	baseWriter
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs all canonical records as CSV rows, one per facility, in
// sequence-index order. The byte count is approximate (encoding/csv does
// not report it); we count what we hand to the encoder.
func (w *CSVWriter) Write(result *model.HarvestResult) (int, error) {
	cw := csv.NewWriter(w.output)

	total := rowLen(csvHeader)
	if err := cw.Write(csvHeader); err != nil {
		return 0, err
	}

	for _, rec := range result.Records {
		row := []string{
			strconv.Itoa(rec.SequenceIndex + 1),
			rec.Name,
			strconv.FormatFloat(rec.Latitude, 'f', 6, 64),
			strconv.FormatFloat(rec.Longitude, 'f', 6, 64),
			rec.Region,
			rec.FirstSeenSource,
			strconv.Itoa(rec.Duplicates),
		}
		if err := cw.Write(row); err != nil {
			return total, err
		}
		total += rowLen(row)
	}

	cw.Flush()
	return total, cw.Error()
}

func rowLen(row []string) int {
	n := len(row) // separators and newline, roughly
	for _, f := range row {
		n += len(f)
	}
	return n
}
