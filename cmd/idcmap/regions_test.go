package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestNewRegionsCmd tests the regions command.
func TestNewRegionsCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRegionsCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "regions" {
			t.Errorf("expected use 'regions', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("lists the built-in region tables", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		cmd := NewRegionsCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"shanghai", "上海市", "guangdong", "广东省", "subdivisions"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("includes config-file tables", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, ".idcmap")
		content := []byte(`
tables:
  hangzhou:
    label: 杭州市
    macro:
      latMin: 29.8
      latMax: 30.6
      lngMin: 119.7
      lngMax: 120.7
    boundaryLabel: 杭州市边界地区
`)
		if err := os.WriteFile(configPath, content, 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		var buf bytes.Buffer
		cmd := NewRegionsCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"--config", configPath})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "hangzhou") {
			t.Errorf("expected output to contain the config-file table, got:\n%s", output)
		}
		if !strings.Contains(output, "config file") {
			t.Errorf("expected config-file origin marker, got:\n%s", output)
		}
	})

	t.Run("returns error for missing explicit config file", func(t *testing.T) {
		t.Parallel()

		cmd := NewRegionsCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "nope.yaml")})

		if err := cmd.Execute(); err == nil {
			t.Error("expected error for missing config file")
		}
	})
}
