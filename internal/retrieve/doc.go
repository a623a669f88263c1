// Package retrieve implements the page retrieval mechanisms for
// directory listings: URL-parameter pagination, background data
// endpoints, simulated browser interaction, and cluster-marker
// decomposition.
//
// Every mechanism satisfies the PageRetriever interface and reports
// outcomes as typed results (ok, empty, no-page, transient) rather than
// errors, so the traversal controller can fall through mechanisms and
// detect listing exhaustion without inspecting error text. Mechanisms
// keep per-run state (the winning pagination parameter, served content
// hashes, the sub-query queue) and are not safe for concurrent use; the
// controller owns one set per region run.
package retrieve
