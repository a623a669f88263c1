// Package main provides the entry point for the idcmap CLI.
//
// idcmap harvests datacenter facility listings from JavaScript-rendered
// directory sites: it probes pagination conventions, calls background data
// endpoints, simulates browser interaction when needed, and reconciles the
// extracted coordinates into one deduplicated facility set per region.
//
// Usage:
//
//	idcmap harvest https://example.com/datacenters
//	idcmap harvest --region guangdong https://example.com/datacenters
//
// See --help for all available options.
package main

// main is the entry point for idcmap.
func main() {
	Execute()
}
