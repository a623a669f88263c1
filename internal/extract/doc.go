// Package extract implements the multi-format coordinate/name extractor.
//
// # Architecture
//
// Extraction is organized around recognizer families, each a self-contained
// rule targeting one payload encoding convention:
//
//   - Structured: latitude/longitude key-value assignments in embedded
//     JSON or JavaScript object literals, with a bounded-window search for
//     a label-like key nearby
//   - DOMAttr: markup elements carrying paired coordinate attributes
//     (data-lat/data-lng and related conventions), parsed with goquery
//   - NumericPair: a last-resort regular expression over adjacent decimal
//     pairs, gated by a mandatory ±90/±180 sanity envelope
//
// The primary families always run and their outputs are concatenated,
// because one payload may mix encodings across embedded blocks. The same
// coordinate being reported by more than one family is expected; the
// reconciler merges those later. NumericPair runs only when the primary
// families found nothing.
//
// The package also extracts map-cluster aggregate markers (Clusters) used
// by the cluster-decomposition retriever, and provides facility-name
// normalization shared by all recognizers.
//
// Extraction never raises on malformed input: a candidate whose capture
// groups fail numeric parsing is dropped alone, and the rest of the batch
// proceeds.
package extract
