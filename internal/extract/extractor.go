package extract

import (
	"log/slog"

	"github.com/idcmap/idcmap/internal/model"
)

// Recognizer is one self-contained extraction rule targeting one payload
// encoding convention. Recognizers scan the payload independently and
// return zero or more candidates; they never fail. Unparseable fragments
// are skipped, not fatal.
//
// Design decision: We use an ordered list of typed recognizers behind one
// interface rather than nested try/except-style cascades. The extractor
// iterates them explicitly, so the order of attempts is visible in one
// place and each family is testable in isolation.
type Recognizer interface {
	// Attempt scans the payload and returns candidate coordinate tuples.
	// An empty slice means no match; it is not an error.
	Attempt(payload string) []model.Candidate

	// Name returns the recognizer family's name for provenance and logging.
	Name() string
}

// Extractor runs an ordered set of recognizer families over raw payloads.
//
// The primary families (structured embedded-object, DOM-attribute) always
// run and their outputs are concatenated, because a single payload may mix
// formats across different embedded blocks. The last-resort family
// (numeric-pair regex) runs only when the primary families yield nothing,
// since bare decimal pairs are too noisy to scan unconditionally.
type Extractor struct {
	// primary recognizers run on every payload, cheapest and most
	// specific first.
	primary []Recognizer

	// lastResort runs only when the primary families found nothing.
	lastResort Recognizer

	// logger for structured logging.
	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithRecognizers replaces the primary recognizer families.
func WithRecognizers(recognizers ...Recognizer) Option {
	return func(e *Extractor) {
		e.primary = recognizers
	}
}

// WithLastResort replaces the last-resort recognizer. Pass nil to disable
// the numeric-pair fallback entirely.
func WithLastResort(r Recognizer) Option {
	return func(e *Extractor) {
		e.lastResort = r
	}
}

// WithLogger sets a custom logger for the extractor.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// New creates an Extractor with the default recognizer families:
// structured embedded-object first, DOM-attribute second, and the
// numeric-pair regex as last resort. The region keywords extend the
// facility-type keywords accepted by the name recognizers.
func New(regionKeywords []string, opts ...Option) *Extractor {
	e := &Extractor{
		primary: []Recognizer{
			NewStructured(regionKeywords),
			NewDOMAttr(),
		},
		lastResort: NewNumericPair(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}

	return e
}

// Extract runs all recognizer families over the payload and returns the
// concatenated candidates, each stamped with the payload's provenance tag.
// It never returns an error: malformed input yields an empty slice.
//
// The same coordinate/name pair being reported by more than one family is
// expected and resolved later by the reconciler, not here.
func (e *Extractor) Extract(payload *model.Payload) []model.Candidate {
	if payload == nil || payload.Body == "" {
		return nil
	}

	var candidates []model.Candidate
	for _, r := range e.primary {
		found := r.Attempt(payload.Body)
		if len(found) > 0 {
			e.logger.Debug("recognizer matched",
				"family", r.Name(),
				"candidates", len(found),
				"source", payload.Source(),
			)
		}
		candidates = append(candidates, found...)
	}

	if len(candidates) == 0 && e.lastResort != nil {
		found := e.lastResort.Attempt(payload.Body)
		if len(found) > 0 {
			e.logger.Debug("last-resort recognizer matched",
				"family", e.lastResort.Name(),
				"candidates", len(found),
				"source", payload.Source(),
			)
		}
		candidates = append(candidates, found...)
	}

	source := payload.Source()
	for i := range candidates {
		candidates[i].Source = source
		candidates[i].Name = NormalizeName(candidates[i].Name)
	}

	return candidates
}
