package model

import (
	"fmt"
	"math"
)

// Candidate is a single coordinate/name tuple produced by one recognizer
// pass over a raw payload. Candidates are transient: they are consumed by
// the region classifier immediately after extraction and never persisted.
type Candidate struct {
	// Latitude in decimal degrees. Required; a candidate without a parsable
	// latitude is discarded during extraction.
	Latitude float64 `json:"latitude"`

	// Longitude in decimal degrees. Required.
	Longitude float64 `json:"longitude"`

	// Name is the facility name found near the coordinates, if any.
	// Empty when no label-like value was found within the search window;
	// the reconciler generates a placeholder in that case.
	Name string `json:"name,omitempty"`

	// Source is a provenance tag recording which retrieval mechanism and
	// page index produced this candidate (e.g. "parametric/page3").
	Source string `json:"source"`
}

// Validated is a Candidate that has passed through the region classifier.
type Validated struct {
	Candidate

	// Region is the administrative subdivision the coordinate was assigned
	// to, or the table's boundary label for in-macro but unclassified points.
	Region string `json:"region"`

	// Admissible reports whether the coordinate belongs to the target
	// macro-region. Inadmissible records are dropped before reconciliation.
	Admissible bool `json:"admissible"`
}

// CoordinateKey identifies a physical location at a fixed decimal precision.
// The same facility is reported with slightly different coordinate strings
// across extraction strategies, so exact float equality is the wrong merge
// key; rounding both axes to a shared precision absorbs that jitter.
type CoordinateKey struct {
	// Lat is the latitude scaled by 10^precision and rounded to an integer.
	Lat int64 `json:"lat"`

	// Lng is the longitude scaled by 10^precision and rounded to an integer.
	Lng int64 `json:"lng"`
}

// NewCoordinateKey computes the merge key for a coordinate pair at the
// given decimal precision. Precision 5-6 balances collision risk against
// near-duplicate GPS jitter; values outside [0, 9] are clamped.
func NewCoordinateKey(lat, lng float64, precision int) CoordinateKey {
	if precision < 0 {
		precision = 0
	}
	if precision > 9 {
		precision = 9
	}
	scale := math.Pow10(precision)
	return CoordinateKey{
		Lat: int64(math.Round(lat * scale)),
		Lng: int64(math.Round(lng * scale)),
	}
}

// String returns the key in "lat:lng" form for logging and storage.
func (k CoordinateKey) String() string {
	return fmt.Sprintf("%d:%d", k.Lat, k.Lng)
}

// Canonical is the deduplicated, retained representation of one physical
// facility. Exactly one Canonical exists per CoordinateKey within a run.
// Fields other than Duplicates are never mutated after creation:
// subsequent sightings of the same key only increment the duplicate count.
type Canonical struct {
	// Key is the precision-rounded coordinate pair this record merges on.
	Key CoordinateKey `json:"coordinate_key"`

	// Latitude and Longitude are the coordinates of the first sighting,
	// kept at full precision for output.
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// Name is the facility name of the first-added record for this key.
	// Conflicting names from later sightings do not win.
	Name string `json:"name"`

	// Region is the administrative subdivision assigned by the classifier.
	Region string `json:"region"`

	// FirstSeenSource is the provenance tag of the record that created
	// this canonical entry.
	FirstSeenSource string `json:"first_seen_source"`

	// SequenceIndex is assigned at insertion time and is stable within a
	// single run. Finalized output is ordered by this index.
	SequenceIndex int `json:"sequence_index"`

	// Duplicates counts later sightings that merged into this record.
	Duplicates int `json:"duplicates"`
}
