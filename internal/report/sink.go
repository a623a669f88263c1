package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/idcmap/idcmap/internal/model"
)

// Paths holds the files one harvest result was written to.
type Paths struct {
	CSV      string
	JSON     string
	Markdown string
}

// Sink writes a harvest result to timestamped files in a directory:
// a CSV for spreadsheet/GIS import, a JSON for tooling, and a Markdown
// report for reading. Filenames follow the
// "<region>_datacenters_<timestamp>.<ext>" convention.
type Sink struct {
	dir     string
	version string
}

// NewSink creates a Sink writing into dir, creating it if needed.
func NewSink(dir, version string) *Sink {
	return &Sink{dir: dir, version: version}
}

// Write persists the result to all three formats and returns their paths.
// Files already written are left in place when a later format fails.
func (s *Sink) Write(result *model.HarvestResult) (Paths, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("create output directory: %w", err)
	}

	stamp := result.StartedAt.Format("20060102_150405")
	base := fmt.Sprintf("%s_datacenters_%s", result.Region, stamp)
	paths := Paths{
		CSV:      filepath.Join(s.dir, base+".csv"),
		JSON:     filepath.Join(s.dir, base+".json"),
		Markdown: filepath.Join(s.dir, base+".md"),
	}

	if err := s.writeFile(paths.CSV, func(f *os.File) Writer { return NewCSVWriter(f) }, result); err != nil {
		return paths, err
	}
	if err := s.writeFile(paths.JSON, func(f *os.File) Writer {
		return NewFullJSONWriter(f, s.version, WithPrettyPrint())
	}, result); err != nil {
		return paths, err
	}
	if err := s.writeFile(paths.Markdown, func(f *os.File) Writer { return NewMarkdownWriter(f) }, result); err != nil {
		return paths, err
	}

	return paths, nil
}

func (s *Sink) writeFile(path string, build func(*os.File) Writer, result *model.HarvestResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := build(f).Write(result); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Sync()
}
