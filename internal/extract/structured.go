package extract

import (
	"regexp"
	"strconv"

	"github.com/idcmap/idcmap/internal/model"
)

// Window sizes for the structured recognizer, in bytes of payload text.
// Coordinate pairs in embedded objects sit within a few keys of each
// other; names may be further away in the same object literal.
const (
	// pairWindow bounds the gap between a latitude assignment and its
	// paired longitude assignment, in either direction.
	pairWindow = 200

	// nameWindow bounds the search for a label-like key around a matched
	// coordinate pair.
	nameWindow = 500
)

// Latitude/longitude assignment patterns, covering JSON keys and bare
// JavaScript object keys. The capture group is the numeric literal.
// Only colon assignments qualify: attribute-style `data-lat="..."` markup
// belongs to the DOM-attribute family and must not be double-counted here.
var (
	structuredLatPattern = regexp.MustCompile(`"?\b(?:latitude|lat)"?\s*:\s*"?(-?\d{1,2}(?:\.\d+)?)"?`)
	structuredLngPattern = regexp.MustCompile(`"?\b(?:longitude|lng|lon)"?\s*:\s*"?(-?\d{1,3}(?:\.\d+)?)"?`)

	// structuredNamePattern matches label-like keys near a coordinate pair.
	structuredNamePattern = regexp.MustCompile(`"(?:name|title|label|facility_name)"\s*:\s*"([^"]{2,120})"`)
)

// Structured recognizes the embedded-object encoding: a latitude and a
// longitude assignment appearing as adjacent key-value pairs within a
// bounded character window, with an optional label-like key nearby whose
// value contains a facility-type or region keyword.
type Structured struct {
	// regionKeywords extend the facility-type keywords accepted when
	// validating a nearby name.
	regionKeywords []string
}

// NewStructured creates the structured embedded-object recognizer.
func NewStructured(regionKeywords []string) *Structured {
	return &Structured{regionKeywords: regionKeywords}
}

// Name returns the recognizer family's name.
func (s *Structured) Name() string {
	return "structured"
}

// Attempt scans the payload for paired latitude/longitude assignments.
// Keys in serialized objects come in no fixed order, so the latitude and
// longitude matches are found independently and each latitude pairs with
// the nearest unclaimed longitude within the window, before or after it.
// Numeric parsing failures drop the single offending candidate; the rest
// of the batch proceeds.
func (s *Structured) Attempt(payload string) []model.Candidate {
	latMatches := structuredLatPattern.FindAllStringSubmatchIndex(payload, -1)
	if len(latMatches) == 0 {
		return nil
	}
	lngMatches := structuredLngPattern.FindAllStringSubmatchIndex(payload, -1)
	if len(lngMatches) == 0 {
		return nil
	}

	claimed := make([]bool, len(lngMatches))
	var candidates []model.Candidate
	for _, m := range latMatches {
		lat, err := strconv.ParseFloat(payload[m[2]:m[3]], 64)
		if err != nil {
			continue
		}

		best := -1
		bestGap := pairWindow + 1
		for i, lm := range lngMatches {
			if claimed[i] {
				continue
			}
			gap := lm[0] - m[1] // longitude after latitude
			if gap < 0 {
				gap = m[0] - lm[1] // longitude before latitude
			}
			if gap < 0 || gap > pairWindow {
				continue
			}
			if gap < bestGap {
				bestGap = gap
				best = i
			}
		}
		if best < 0 {
			continue
		}
		claimed[best] = true

		lm := lngMatches[best]
		lng, err := strconv.ParseFloat(payload[lm[2]:lm[3]], 64)
		if err != nil {
			continue
		}

		if !plausibleCoordinate(lat, lng) {
			continue
		}

		candidates = append(candidates, model.Candidate{
			Latitude:  lat,
			Longitude: lng,
			Name:      s.findName(payload, m[0]),
		})
	}

	return candidates
}

// findName scans a second bounded window around the coordinate position
// for a label-like key whose value contains a facility-type keyword or a
// region keyword. An empty return means no acceptable name was found.
func (s *Structured) findName(payload string, pos int) string {
	start := pos - nameWindow
	if start < 0 {
		start = 0
	}
	end := pos + nameWindow
	if end > len(payload) {
		end = len(payload)
	}

	for _, m := range structuredNamePattern.FindAllStringSubmatch(payload[start:end], -1) {
		if LooksLikeFacilityName(m[1], s.regionKeywords) {
			return m[1]
		}
	}
	return ""
}
