package reconcile

import (
	"fmt"

	"github.com/idcmap/idcmap/internal/model"
)

// Reconciler merges validated records arriving from many retrieval
// strategies into one canonical set keyed by precision-rounded coordinates.
//
// The reconciler exclusively owns the canonical set for the duration of a
// run. It is not safe for concurrent use: confine it to one goroutine, or
// guard it externally when feeding it from parallel workers.
type Reconciler struct {
	// precision is the coordinate rounding precision in decimal digits.
	precision int

	// placeholderLabel prefixes generated names for records that arrived
	// without one (e.g. "上海市" yields "上海市数据中心7").
	placeholderLabel string

	// seen maps coordinate keys to their canonical records.
	seen map[model.CoordinateKey]*model.Canonical

	// order holds canonical records in sequence-index order.
	order []*model.Canonical

	// duplicates counts sightings merged into existing records.
	duplicates int
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithPlaceholderLabel sets the region label used in generated placeholder
// names for records that arrive without one.
func WithPlaceholderLabel(label string) Option {
	return func(r *Reconciler) {
		r.placeholderLabel = label
	}
}

// New creates a Reconciler with the given coordinate rounding precision.
func New(precision int, opts ...Option) *Reconciler {
	r := &Reconciler{
		precision: precision,
		seen:      make(map[model.CoordinateKey]*model.Canonical),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add merges one validated record into the canonical set. It returns true
// when the record created a new canonical entry, false when it merged into
// an existing one.
//
// First-seen-wins: a later sighting of the same coordinate key never
// alters the existing record's name or region, it only increments the
// duplicate counter.
func (r *Reconciler) Add(rec model.Validated) bool {
	if !rec.Admissible {
		return false
	}

	key := model.NewCoordinateKey(rec.Latitude, rec.Longitude, r.precision)
	if existing, ok := r.seen[key]; ok {
		existing.Duplicates++
		r.duplicates++
		return false
	}

	name := rec.Name
	if name == "" {
		name = r.placeholderName()
	}

	canonical := &model.Canonical{
		Key:             key,
		Latitude:        rec.Latitude,
		Longitude:       rec.Longitude,
		Name:            name,
		Region:          rec.Region,
		FirstSeenSource: rec.Source,
		SequenceIndex:   len(r.order),
	}
	r.seen[key] = canonical
	r.order = append(r.order, canonical)
	return true
}

// placeholderName generates a name for a record that arrived without one,
// following the "<region>数据中心N" convention of the source directory.
func (r *Reconciler) placeholderName() string {
	return fmt.Sprintf("%s数据中心%d", r.placeholderLabel, len(r.order)+1)
}

// Seen reports whether a coordinate already has a canonical record.
func (r *Reconciler) Seen(lat, lng float64) bool {
	_, ok := r.seen[model.NewCoordinateKey(lat, lng, r.precision)]
	return ok
}

// Len returns the current number of canonical records.
func (r *Reconciler) Len() int {
	return len(r.order)
}

// Duplicates returns the number of sightings merged into existing records.
func (r *Reconciler) Duplicates() int {
	return r.duplicates
}

// Finalize returns all canonical records in sequence-index order. The
// returned slice is the reconciler's own; callers take ownership and the
// reconciler must not be used afterwards.
func (r *Reconciler) Finalize() []*model.Canonical {
	return r.order
}
