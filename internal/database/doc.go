// Package database provides SQLite-backed persistence for harvest runs:
// a payload cache keyed by content hash and a history of completed
// results. The cache lets interrupted runs be inspected and replayed
// without re-fetching, and the result history supports comparing runs
// over time.
package database
