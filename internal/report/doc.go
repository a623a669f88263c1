// Package report renders harvest results for people and tools.
//
// Four writers share one interface: CSV for spreadsheet and GIS import,
// JSON for programmatic consumers, Markdown for shareable reports, and a
// plain-text summary for the terminal. The Sink bundles the file-bound
// formats into one timestamped output set per run.
package report
