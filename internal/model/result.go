package model

import "time"

// HarvestResult is the complete outcome of one harvest run for one target
// region: the canonical record set plus the run summary handed to the
// report writers. Partial runs (interrupted or exhausted early) still
// produce a result with whatever was reconciled.
type HarvestResult struct {
	// Region is the macro-region name the run targeted.
	Region string `json:"region"`

	// StartURL is the directory listing URL the traversal started from.
	StartURL string `json:"start_url"`

	// Records is the finalized canonical set in sequence-index order.
	Records []*Canonical `json:"records"`

	// Stats summarizes traversal and extraction activity.
	Stats HarvestStats `json:"stats"`

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Interrupted is true when the run was cancelled before the traversal
	// finished; Records still holds everything reconciled up to that point.
	Interrupted bool `json:"interrupted,omitempty"`
}

// HarvestStats aggregates per-run counters. It is populated by the
// traversal controller and reported alongside the data so callers can see
// which mechanisms actually produced records.
type HarvestStats struct {
	// TotalPages is the page count discovered from the initial payload,
	// or the configured fallback when no count was found.
	TotalPages int `json:"total_pages"`

	// PagesFetched is the number of pages that yielded a payload.
	PagesFetched int `json:"pages_fetched"`

	// Candidates is the number of coordinate tuples extracted, before
	// classification.
	Candidates int `json:"candidates"`

	// Admissible is the number of candidates accepted by the classifier.
	Admissible int `json:"admissible"`

	// Rejected is the number of candidates filtered as out-of-region.
	Rejected int `json:"rejected"`

	// DuplicatesMerged counts sightings that merged into an existing
	// canonical record instead of creating a new one.
	DuplicatesMerged int `json:"duplicates_merged"`

	// ByMechanism maps mechanism name to its activity counters.
	ByMechanism map[string]*MechanismStats `json:"by_mechanism,omitempty"`

	// ByRegion maps subdivision name to retained record count.
	ByRegion map[string]int `json:"by_region,omitempty"`
}

// MechanismStats counts one retrieval mechanism's contribution to a run.
type MechanismStats struct {
	// Pages is the number of payloads this mechanism produced.
	Pages int `json:"pages"`

	// Candidates is the number of candidates extracted from them.
	Candidates int `json:"candidates"`
}

// AddMechanismPage records one successful fetch for the named mechanism.
func (s *HarvestStats) AddMechanismPage(mechanism string, candidates int) {
	if s.ByMechanism == nil {
		s.ByMechanism = make(map[string]*MechanismStats)
	}
	ms, ok := s.ByMechanism[mechanism]
	if !ok {
		ms = &MechanismStats{}
		s.ByMechanism[mechanism] = ms
	}
	ms.Pages++
	ms.Candidates += candidates
	s.PagesFetched++
	s.Candidates += candidates
}

// AddRegion increments the retained-record counter for a subdivision.
func (s *HarvestStats) AddRegion(region string) {
	if s.ByRegion == nil {
		s.ByRegion = make(map[string]int)
	}
	s.ByRegion[region]++
}
