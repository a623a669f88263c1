package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()
		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("err = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("invalid yaml returns error", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte(":\n  - not yaml"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected error for invalid yaml")
		}
	})

	t.Run("loads tables seeds clusters and sites", func(t *testing.T) {
		t.Parallel()
		content := `
tables:
  testregion:
    label: "测试市"
    macro: {latMin: 30.0, latMax: 32.0, lngMin: 120.0, lngMax: 122.0}
    subdivisions:
      - name: "中心区"
        box: {latMin: 30.9, latMax: 31.1, lngMin: 120.9, lngMax: 121.1}
    boundaryLabel: "测试市边界地区"
seeds:
  testregion:
    - name: "测试数据中心"
      lat: 31.0
      lng: 121.0
clusters:
  testregion:
    - lat: 31.05
      lng: 121.05
      count: 12
sites:
  directory.example.com:
    cookie: "session=abc"
    headers:
      X-Custom: "1"
defaults:
  referer: "https://directory.example.com/"
`
		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("LoadConfigFile() error = %v", err)
		}

		table, ok := cf.Tables["testregion"]
		if !ok {
			t.Fatal("expected testregion table")
		}
		if table.Name != "testregion" {
			t.Errorf("table name = %q, want testregion (inherited from key)", table.Name)
		}
		if len(table.Subdivisions) != 1 || table.Subdivisions[0].Name != "中心区" {
			t.Errorf("unexpected subdivisions: %+v", table.Subdivisions)
		}

		seeds := cf.SeedsFor("testregion")
		if len(seeds) != 1 || seeds[0].Name != "测试数据中心" {
			t.Errorf("unexpected seeds: %+v", seeds)
		}

		clusters := cf.ClustersFor("testregion")
		if len(clusters) != 1 || clusters[0].Count != 12 {
			t.Errorf("unexpected clusters: %+v", clusters)
		}

		site := cf.GetSiteConfig("directory.example.com")
		if site.Cookie != "session=abc" {
			t.Errorf("cookie = %q, want session=abc", site.Cookie)
		}
		if site.Referer != "https://directory.example.com/" {
			t.Errorf("referer = %q, want default referer", site.Referer)
		}
		if site.Headers["X-Custom"] != "1" {
			t.Errorf("headers = %v, want X-Custom=1", site.Headers)
		}
	})
}

func TestGetSiteConfig(t *testing.T) {
	t.Parallel()

	cf := &File{
		Defaults: SiteConfig{
			Referer: "https://default.example.com/",
			Headers: map[string]string{"Accept": "text/html"},
		},
		Sites: map[string]SiteConfig{
			"a.example.com": {
				Cookie:     "x=1",
				PageParams: []string{"pn"},
			},
		},
	}

	t.Run("unknown host gets defaults", func(t *testing.T) {
		t.Parallel()
		got := cf.GetSiteConfig("unknown.example.com")
		if got.Referer != "https://default.example.com/" {
			t.Errorf("referer = %q, want default", got.Referer)
		}
	})

	t.Run("site overrides merge over defaults", func(t *testing.T) {
		t.Parallel()
		got := cf.GetSiteConfig("a.example.com")
		if got.Cookie != "x=1" {
			t.Errorf("cookie = %q, want x=1", got.Cookie)
		}
		if got.Referer != "https://default.example.com/" {
			t.Errorf("referer = %q, want default retained", got.Referer)
		}
		if len(got.PageParams) != 1 || got.PageParams[0] != "pn" {
			t.Errorf("pageParams = %v, want [pn]", got.PageParams)
		}
	})
}
