// Package log provides logging helpers built on top of the standard slog
// package.
//
// The TruncateHandler caps oversized string attributes before emission so
// that verbose runs can log raw payload snippets without flooding the
// output with multi-megabyte page bodies. Attribute keys known to carry
// raw page content (body, payload, html, ...) are truncated harder than
// ordinary attributes.
//
// Usage:
//
//	logger := log.NewLogger(os.Stderr, true) // verbose=true
//	logger.Debug("page fetched",
//	    "mechanism", "parametric",
//	    "body", payload.Body, // will be truncated
//	)
//	slog.SetDefault(logger)
package log
