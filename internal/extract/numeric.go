package extract

import (
	"regexp"
	"strconv"

	"github.com/idcmap/idcmap/internal/model"
)

// numericPairPattern matches adjacent decimal-looking pairs such as
// "31.2304, 121.4737". At least three decimal digits are required on each
// side so that version numbers and prices rarely qualify.
var numericPairPattern = regexp.MustCompile(`(-?\d{1,2}\.\d{3,8})\s*,\s*(-?\d{1,3}\.\d{3,8})`)

// NumericPair is the last-resort textual recognizer: a regular expression
// over adjacent decimal pairs. It runs only when the structured and
// DOM-attribute families yield nothing, and every match must pass the
// geographic sanity envelope before it is allowed downstream.
type NumericPair struct{}

// NewNumericPair creates the numeric-pair recognizer.
func NewNumericPair() *NumericPair {
	return &NumericPair{}
}

// Name returns the recognizer family's name.
func (n *NumericPair) Name() string {
	return "numeric-pair"
}

// Attempt scans the payload for bare decimal pairs. Matches outside the
// ±90/±180 envelope are rejected; this post-filter is mandatory because
// the pattern alone matches far more than coordinates.
func (n *NumericPair) Attempt(payload string) []model.Candidate {
	matches := numericPairPattern.FindAllStringSubmatch(payload, -1)
	if len(matches) == 0 {
		return nil
	}

	var candidates []model.Candidate
	for _, m := range matches {
		lat, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		lng, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		if !plausibleCoordinate(lat, lng) {
			continue
		}
		candidates = append(candidates, model.Candidate{Latitude: lat, Longitude: lng})
	}

	return candidates
}

// plausibleCoordinate is the broad geographic sanity envelope applied to
// every recognizer's output: latitude within ±90, longitude within ±180,
// and not the (0, 0) null island that broken map widgets emit.
func plausibleCoordinate(lat, lng float64) bool {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return false
	}
	if lat == 0 && lng == 0 {
		return false
	}
	return true
}
