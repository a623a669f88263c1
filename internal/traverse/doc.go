// Package traverse drives harvest runs: page-total discovery, the
// page-by-page walk across retrieval mechanisms, and the hand-off of each
// payload to extraction, classification, and reconciliation.
//
// The Controller owns one region's run end to end and decides when to
// stop: declared page total reached, every mechanism exhausted, progress
// stagnated, or context cancelled. Cancellation is graceful; the partial
// canonical set is finalized and returned. BatchHarvester fans several
// region runs out over a bounded worker group.
package traverse
