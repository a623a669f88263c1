package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoStartURL is returned when no directory listing URL is specified.
	ErrNoStartURL = errors.New("no start URL specified: provide a facility-directory listing URL")

	// ErrNoRegion is returned when the region list is empty.
	ErrNoRegion = errors.New("no region specified: provide at least one region name")

	// ErrUnknownRegion is returned when a requested region has no table,
	// neither built-in nor in the configuration file.
	ErrUnknownRegion = errors.New("unknown region: no region table found")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	// A timeout of zero or negative would cause immediate fetch failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidPrecision is returned when the coordinate rounding
	// precision is outside [0, 9] decimal digits.
	ErrInvalidPrecision = errors.New("invalid precision: must be between 0 and 9 decimal digits")

	// ErrInvalidFallbackPages is returned when the fallback page total is
	// not positive. The traversal needs at least one page to attempt.
	ErrInvalidFallbackPages = errors.New("invalid fallback pages: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	// A batch size of zero would mean no concurrent harvests at all.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 to fall back to the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")
)
