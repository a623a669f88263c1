// Package reconcile implements coordinate-based deduplication of facility
// records.
//
// Records for the same physical facility arrive from several extraction
// strategies with slightly different coordinate strings (different decimal
// truncation, different source encodings), so exact floating-point
// equality is the wrong merge key. The Reconciler instead keys on both
// coordinates rounded to a configurable decimal precision and keeps the
// first-seen record per key, counting later sightings as duplicates.
//
// Design decision: The canonical set is an explicitly owned, single
// instance per run, passed by handle to its callers. Earlier iterations
// of this pipeline scattered seen-coordinate sets across module-level
// variables, which made runs order-dependent and untestable.
package reconcile
