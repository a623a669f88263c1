// Package region implements the geographic admissibility filter.
//
// The Classifier performs a two-stage check driven entirely by a
// config.RegionTable: a coarse macro bounding-box test, then fine
// classification against named subdivision boxes with nearest-centroid
// fallback. Points inside the macro box but outside every subdivision are
// accepted under the table's boundary label, unless they fall inside a
// configured exclusion zone representing an adjacent, frequently-confused
// region.
//
// Core-override zones are evaluated before the exclusion zones so that
// exclusion rules, which are deliberately drawn broad, cannot discard
// valid central points.
//
// Classification is a pure function: it holds no state and may be shared
// across goroutines freely.
package region
