package region

import (
	"math"

	"github.com/idcmap/idcmap/internal/config"
)

// DefaultCentroidThreshold is the maximum centroid distance, in degrees,
// at which a point outside every subdivision box is still assigned to the
// nearest subdivision instead of the boundary label. Roughly 5km at these
// latitudes.
const DefaultCentroidThreshold = 0.05

// Classifier decides whether a coordinate belongs to the target
// macro-region and assigns it to an administrative subdivision.
//
// Classification is a pure function of the region table: repeated calls
// with the same input always yield the same result, which keeps the
// pipeline deterministic and the classifier trivially safe to share
// across goroutines.
type Classifier struct {
	// table is the region table driving all decisions.
	table *config.RegionTable

	// centroidThreshold is the nearest-centroid acceptance distance in
	// degrees for points outside every subdivision box.
	centroidThreshold float64
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithCentroidThreshold overrides the nearest-centroid acceptance distance.
func WithCentroidThreshold(degrees float64) Option {
	return func(c *Classifier) {
		c.centroidThreshold = degrees
	}
}

// New creates a Classifier for the given region table.
func New(table *config.RegionTable, opts ...Option) *Classifier {
	c := &Classifier{
		table:             table,
		centroidThreshold: DefaultCentroidThreshold,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Table returns the region table the classifier was built from.
func (c *Classifier) Table() *config.RegionTable {
	return c.table
}

// Classify decides admissibility and subdivision for a coordinate.
//
// The checks run in a fixed order:
//  1. Coarse macro bounding box: outside means immediately inadmissible.
//  2. Core-override zones: points inside a core zone bypass the
//     exclusion-zone checks entirely, so aggressive exclusion rules
//     cannot discard valid central points.
//  3. Exclusion zones: membership marks the point inadmissible.
//  4. Subdivision assignment: containing box first (first listed wins),
//     then nearest centroid within the threshold, then the boundary
//     label. Boundary points are accepted, never silently dropped.
func (c *Classifier) Classify(lat, lng float64) (admissible bool, region string) {
	if !c.table.Macro.Contains(lat, lng) {
		return false, ""
	}

	if !c.inCoreZone(lat, lng) {
		for _, zone := range c.table.ExclusionZones {
			if zone.Box.Contains(lat, lng) {
				return false, ""
			}
		}
	}

	return true, c.subdivision(lat, lng)
}

// inCoreZone reports whether the point lies in a core-override zone.
func (c *Classifier) inCoreZone(lat, lng float64) bool {
	for _, zone := range c.table.CoreZones {
		if zone.Contains(lat, lng) {
			return true
		}
	}
	return false
}

// subdivision assigns the point to a named subdivision.
//
// Containing-box matching runs first; when boxes overlap, the first
// listed subdivision wins. Points in no box fall back to the nearest
// centroid within the threshold; distance ties again break to the first
// listed subdivision. This tie-break is arbitrary but deterministic,
// defined entirely by table order.
func (c *Classifier) subdivision(lat, lng float64) string {
	for _, sub := range c.table.Subdivisions {
		if sub.Box.Contains(lat, lng) {
			return sub.Name
		}
	}

	best := ""
	bestDist := math.MaxFloat64
	for _, sub := range c.table.Subdivisions {
		cLat, cLng := sub.Box.Center()
		dist := math.Hypot(lat-cLat, lng-cLng)
		if dist < bestDist {
			bestDist = dist
			best = sub.Name
		}
	}
	if best != "" && bestDist <= c.centroidThreshold {
		return best
	}

	return c.table.BoundaryLabel
}
