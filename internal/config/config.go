package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values are chosen to match the behavior of typical JavaScript-heavy
// facility directories, where rendering and pagination are slow and
// inconsistent across sessions.
const (
	// DefaultTimeout is the per-request timeout for HTTP fetches.
	// Directory pages are rendered server-side slowly and often proxied,
	// so a short timeout would produce many false NO_PAGE results.
	DefaultTimeout = 30 * time.Second

	// DefaultSettleDelay is the maximum time to wait for client-side
	// rendering to stabilize after a simulated interaction. The wait is a
	// poll-until-stable loop bounded by this duration, not a fixed sleep.
	DefaultSettleDelay = 10 * time.Second

	// DefaultSettleInterval is the polling interval of the settle loop.
	DefaultSettleInterval = 500 * time.Millisecond

	// DefaultFallbackPages is the page total assumed when the initial
	// payload exposes no explicit total-page or total-item count. This is
	// a documented conservative default, not a guess about site behavior;
	// callers may override it via the --fallback-pages flag.
	DefaultFallbackPages = 5

	// DefaultRetryBudget is the number of sub-queries each cluster marker
	// may spend before decomposition gives up on it.
	DefaultRetryBudget = 4

	// DefaultPrecision is the coordinate rounding precision (decimal
	// digits) used for deduplication keys. Five digits is roughly one
	// meter of latitude, which merges GPS jitter between extraction
	// strategies without colliding distinct facilities.
	DefaultPrecision = 5

	// DefaultBatchSize is the number of macro-regions harvested
	// concurrently when multiple regions are requested. Each worker owns
	// an independent retrieval session, so concurrency is safe here.
	DefaultBatchSize = 3

	// DefaultMaxBodySize limits the response body size read per page.
	// 5MB covers even script-heavy listing pages.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultUserAgent is a desktop browser User-Agent. Facility
	// directories frequently serve reduced markup to unknown agents.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// DefaultAcceptLanguage is sent with every request. The target
	// directories label facilities in Chinese first.
	DefaultAcceptLanguage = "zh-CN,zh;q=0.9,en;q=0.8"

	// DefaultPageDelay is the politeness delay between page fetches.
	DefaultPageDelay = 2 * time.Second

	// AppName is the application name used for XDG directory paths.
	AppName = "idcmap"
)

// Config holds all configuration options for a harvest run.
// This struct is populated from CLI flags and passed through the
// application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., FetchConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
type Config struct {
	// StartURL is the facility-directory listing URL to harvest.
	StartURL string

	// Regions names the macro-regions to harvest. Each entry must match a
	// region table (built-in or loaded from the config file). Multiple
	// regions are dispatched to a bounded worker pool.
	Regions []string

	// Timeout is the per-request timeout for HTTP and rendering calls.
	// A timed-out call is treated as NO_PAGE, never as a fatal error.
	Timeout time.Duration

	// SettleDelay bounds the wait for client-side rendering after a
	// simulated interaction.
	SettleDelay time.Duration

	// SettleInterval is the polling interval of the settle wait.
	SettleInterval time.Duration

	// PageDelay is the politeness delay between page fetches.
	PageDelay time.Duration

	// FallbackPages is the page total used when discovery finds none.
	FallbackPages int

	// RetryBudget is the per-cluster sub-query budget during
	// cluster-marker decomposition.
	RetryBudget int

	// Precision is the coordinate rounding precision in decimal digits
	// used to build deduplication keys.
	Precision int

	// BatchSize is the number of concurrent region harvests.
	BatchSize int

	// MaxBodySize is the maximum response body size in bytes to read.
	// Set to 0 to use the default (5MB).
	MaxBodySize int64

	// UserAgent is the User-Agent header sent with HTTP requests and
	// configured into the rendering session.
	UserAgent string

	// Referer is the Referer header sent with HTTP requests, if any.
	Referer string

	// NoBrowser disables the simulated-interaction retriever. Harvesting
	// then relies on parametric and background-endpoint mechanisms only.
	NoBrowser bool

	// CacheDir is the directory for the SQLite payload cache.
	// When empty, payloads are not cached between runs.
	CacheDir string

	// OutputDir is the directory the report sink writes into.
	OutputDir string

	// JSONReport selects JSON record output to stdout instead of the
	// human-readable summary. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown report output to stdout.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file. If empty,
	// the tool searches for .idcmap in the current directory and then in
	// the user's home directory.
	ConfigFilePath string

	// File holds region tables, seeds, and site overrides loaded from the
	// config file. Populated by LoadConfigFile.
	File *File
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most runs.
// Users can override specific values after creation.
func NewConfig() *Config {
	return &Config{
		Regions:        []string{"shanghai"},
		Timeout:        DefaultTimeout,
		SettleDelay:    DefaultSettleDelay,
		SettleInterval: DefaultSettleInterval,
		PageDelay:      DefaultPageDelay,
		FallbackPages:  DefaultFallbackPages,
		RetryBudget:    DefaultRetryBudget,
		Precision:      DefaultPrecision,
		BatchSize:      DefaultBatchSize,
		MaxBodySize:    DefaultMaxBodySize,
		UserAgent:      DefaultUserAgent,
		OutputDir:      DefaultOutputDir(),
	}
}

// Validate checks the configuration for invalid combinations.
// It returns one of the package sentinel errors on failure.
func (c *Config) Validate() error {
	if c.StartURL == "" {
		return ErrNoStartURL
	}
	if len(c.Regions) == 0 {
		return ErrNoRegion
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Precision < 0 || c.Precision > 9 {
		return ErrInvalidPrecision
	}
	if c.FallbackPages <= 0 {
		return ErrInvalidFallbackPages
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	return nil
}

// DefaultOutputDir returns the default report output directory under the
// XDG data home (e.g. ~/.local/share/idcmap/reports on Linux).
func DefaultOutputDir() string {
	return filepath.Join(xdg.DataHome, AppName, "reports")
}

// DefaultCacheDir returns the default payload cache directory under the
// XDG cache home (e.g. ~/.cache/idcmap on Linux).
func DefaultCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// TableFor resolves the region table for a named macro-region. Tables from
// the loaded config file take precedence over the built-in ones.
func (c *Config) TableFor(name string) (*RegionTable, bool) {
	if c.File != nil {
		if table, ok := c.File.Tables[name]; ok {
			return table, true
		}
	}
	return BuiltinTable(name)
}
