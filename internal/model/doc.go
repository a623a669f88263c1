// Package model defines the core data structures used throughout idcmap.
//
// This package contains the following main types:
//   - Candidate: A coordinate/name tuple produced by one recognizer pass
//   - Validated: A Candidate with its region classification attached
//   - Canonical: The deduplicated, retained representation of one facility
//   - Payload: The raw result of one page retrieval
//   - HarvestResult: The final record set plus run summary
//
// Design decision: We separate models into their own package to avoid
// circular dependencies. Multiple packages (extract, reconcile, retrieve,
// report) need these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// payload cache storage.
package model
