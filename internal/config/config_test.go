package config

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		c := NewConfig()
		c.StartURL = "https://directory.example.com/locations/china/shanghai"
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "valid default config", mutate: func(*Config) {}, wantErr: nil},
		{name: "missing start URL", mutate: func(c *Config) { c.StartURL = "" }, wantErr: ErrNoStartURL},
		{name: "empty region list", mutate: func(c *Config) { c.Regions = nil }, wantErr: ErrNoRegion},
		{name: "zero timeout", mutate: func(c *Config) { c.Timeout = 0 }, wantErr: ErrInvalidTimeout},
		{name: "precision too high", mutate: func(c *Config) { c.Precision = 10 }, wantErr: ErrInvalidPrecision},
		{name: "negative precision", mutate: func(c *Config) { c.Precision = -1 }, wantErr: ErrInvalidPrecision},
		{name: "zero fallback pages", mutate: func(c *Config) { c.FallbackPages = 0 }, wantErr: ErrInvalidFallbackPages},
		{name: "zero batch size", mutate: func(c *Config) { c.BatchSize = 0 }, wantErr: ErrInvalidBatchSize},
		{name: "conflicting report formats", mutate: func(c *Config) { c.JSONReport = true; c.MarkdownReport = true }, wantErr: ErrConflictingReportFormats},
		{name: "negative max body size", mutate: func(c *Config) { c.MaxBodySize = -1 }, wantErr: ErrInvalidMaxBodySize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigTableFor(t *testing.T) {
	t.Parallel()

	t.Run("builtin table resolves", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		table, ok := cfg.TableFor("shanghai")
		if !ok {
			t.Fatal("expected shanghai table to resolve")
		}
		if table.Label != "上海市" {
			t.Errorf("Label = %q, want 上海市", table.Label)
		}
	})

	t.Run("file table takes precedence", func(t *testing.T) {
		t.Parallel()
		custom := &RegionTable{Name: "shanghai", Label: "custom"}
		cfg := NewConfig()
		cfg.File = &File{Tables: map[string]*RegionTable{"shanghai": custom}}
		table, ok := cfg.TableFor("shanghai")
		if !ok {
			t.Fatal("expected table to resolve")
		}
		if table.Label != "custom" {
			t.Errorf("Label = %q, want custom", table.Label)
		}
	})

	t.Run("unknown region does not resolve", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		if _, ok := cfg.TableFor("atlantis"); ok {
			t.Error("expected no table for unknown region")
		}
	})
}

func TestBoundingBox(t *testing.T) {
	t.Parallel()

	b := BoundingBox{LatMin: 30.6, LatMax: 31.9, LngMin: 120.8, LngMax: 122.2}

	tests := []struct {
		name     string
		lat, lng float64
		want     bool
	}{
		{name: "inside", lat: 31.2304, lng: 121.4737, want: true},
		{name: "on boundary", lat: 30.6, lng: 120.8, want: true},
		{name: "north of box", lat: 32.0, lng: 121.5, want: false},
		{name: "west of box", lat: 31.2, lng: 120.0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := b.Contains(tt.lat, tt.lng); got != tt.want {
				t.Errorf("Contains(%v, %v) = %v, want %v", tt.lat, tt.lng, got, tt.want)
			}
		})
	}

	t.Run("center", func(t *testing.T) {
		t.Parallel()
		lat, lng := b.Center()
		if lat != 31.25 || lng != 121.5 {
			t.Errorf("Center() = (%v, %v), want (31.25, 121.5)", lat, lng)
		}
	})
}

func TestBuiltinTables(t *testing.T) {
	t.Parallel()

	t.Run("shanghai table is well formed", func(t *testing.T) {
		t.Parallel()
		table := ShanghaiTable()
		if len(table.Subdivisions) != 16 {
			t.Errorf("subdivisions = %d, want 16", len(table.Subdivisions))
		}
		if len(table.ExclusionZones) != 4 {
			t.Errorf("exclusion zones = %d, want 4", len(table.ExclusionZones))
		}
		if len(table.CoreZones) == 0 {
			t.Error("expected core zones")
		}
		for _, sub := range table.Subdivisions {
			c1, c2 := sub.Box.Center()
			if !table.Macro.Contains(c1, c2) {
				t.Errorf("subdivision %s centroid outside macro box", sub.Name)
			}
		}
	})

	t.Run("builtin names resolve", func(t *testing.T) {
		t.Parallel()
		for _, name := range BuiltinTableNames() {
			if _, ok := BuiltinTable(name); !ok {
				t.Errorf("BuiltinTable(%q) did not resolve", name)
			}
		}
	})
}
