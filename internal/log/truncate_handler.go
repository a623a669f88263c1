package log

import (
	"context"
	"io"
	"log/slog"
	"strconv"
)

// DefaultMaxAttrLen is the maximum length of a string attribute value
// before truncation. Payload bodies routinely run to megabytes; logging
// them whole makes verbose output unusable and can leak entire page dumps
// into stored logs.
const DefaultMaxAttrLen = 256

// payloadKeys contains attribute keys whose values are always truncated
// aggressively, regardless of length, because they carry raw page content.
var payloadKeys = map[string]bool{
	"body":     true,
	"payload":  true,
	"snippet":  true,
	"html":     true,
	"response": true,
}

// TruncateHandler wraps an slog.Handler to cap oversized attribute values.
// It intercepts log records and truncates string attributes that exceed
// the configured limit before passing them to the underlying handler.
//
// Design decision: We use a handler wrapper rather than a custom logger
// because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Call sites can log payloads freely without pre-trimming them
type TruncateHandler struct {
	// handler is the underlying slog handler that receives trimmed records.
	handler slog.Handler

	// maxLen is the maximum string attribute length before truncation.
	maxLen int
}

// NewTruncateHandler creates a new TruncateHandler wrapping the given
// handler. If handler is nil, the returned TruncateHandler uses
// slog.Default().Handler(). If maxLen is not positive, DefaultMaxAttrLen
// is used.
func NewTruncateHandler(handler slog.Handler, maxLen int) *TruncateHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxAttrLen
	}
	return &TruncateHandler{handler: handler, maxLen: maxLen}
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *TruncateHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle trims the record's attributes and passes it to the underlying handler.
func (h *TruncateHandler) Handle(ctx context.Context, r slog.Record) error {
	trimmed := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		trimmed.AddAttrs(h.trimAttr(a))
		return true
	})

	return h.handler.Handle(ctx, trimmed)
}

// WithAttrs returns a new handler with the given attributes added.
// Attributes are trimmed before being added.
func (h *TruncateHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	trimmedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		trimmedAttrs[i] = h.trimAttr(a)
	}
	return &TruncateHandler{handler: h.handler.WithAttrs(trimmedAttrs), maxLen: h.maxLen}
}

// WithGroup returns a new handler with the given group name.
func (h *TruncateHandler) WithGroup(name string) slog.Handler {
	return &TruncateHandler{handler: h.handler.WithGroup(name), maxLen: h.maxLen}
}

// trimAttr truncates a single attribute, recursively handling groups.
func (h *TruncateHandler) trimAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		trimmedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			trimmedAttrs[i] = h.trimAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(trimmedAttrs...)}
	}

	if a.Value.Kind() != slog.KindString {
		return a
	}

	val := a.Value.String()
	limit := h.maxLen
	if payloadKeys[a.Key] && limit > 128 {
		limit = 128
	}
	if len(val) <= limit {
		return a
	}

	return slog.String(a.Key, val[:limit]+"... (truncated "+strconv.Itoa(len(val)-limit)+" bytes)")
}

// NewLogger creates a new slog.Logger with payload truncation.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Warn
//
// Returns a *slog.Logger that can be used with slog.SetDefault() or passed
// to components that accept *slog.Logger.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	textHandler := slog.NewTextHandler(w, opts)
	return slog.New(NewTruncateHandler(textHandler, DefaultMaxAttrLen))
}
