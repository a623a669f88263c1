package retrieve

import (
	"github.com/idcmap/idcmap/internal/model"
)

// Status classifies the outcome of one fetch attempt.
//
// Design decision: Mechanisms return explicit result types instead of
// signalling through errors. The traversal controller makes retry/advance
// decisions on the status, so "no more pages" and "try again elsewhere"
// must be distinguishable from each other and from real failures without
// string matching on error text.
type Status int

const (
	// StatusOK means the mechanism produced a payload.
	StatusOK Status = iota

	// StatusEmpty means the mechanism responded but the content was empty
	// or a repeat of content it already served. The controller may try
	// another mechanism for the same page.
	StatusEmpty

	// StatusNoPage means the mechanism cannot produce this or any further
	// page. This is a sentinel, not an error.
	StatusNoPage

	// StatusTransient means the attempt failed in a way that does not
	// condemn the mechanism (timeout, connection error, HTTP error
	// status). The controller treats it like NoPage for this page only.
	StatusTransient
)

// String returns the status name for logging.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	case StatusNoPage:
		return "no_page"
	case StatusTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Result is the outcome of one fetch attempt: a status, the payload when
// the status is StatusOK, and the underlying error when the status is
// StatusTransient.
type Result struct {
	Status  Status
	Payload *model.Payload
	Err     error
}

// OK builds a successful result carrying a payload.
func OK(p *model.Payload) Result {
	return Result{Status: StatusOK, Payload: p}
}

// Empty builds an empty/repeated-content result.
func Empty() Result {
	return Result{Status: StatusEmpty}
}

// NoPage builds the mechanism-exhausted sentinel result.
func NoPage() Result {
	return Result{Status: StatusNoPage}
}

// Transient builds a result for a retryable failure.
func Transient(err error) Result {
	return Result{Status: StatusTransient, Err: err}
}
