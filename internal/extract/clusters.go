package extract

import (
	"regexp"
	"strconv"

	"github.com/idcmap/idcmap/internal/config"
)

// clusterCountPattern matches aggregate-count keys emitted next to a
// cluster marker's coordinates ("count", "cluster_count",
// "facilities_count", "size").
var clusterCountPattern = regexp.MustCompile(`"(?:count|cluster_count|facilities_count|size)"\s*:\s*(\d{1,5})`)

// clusterWindow bounds the search for a count key around a coordinate
// assignment. Cluster objects are small; a count further away belongs to
// something else.
const clusterWindow = 160

// Clusters scans a payload for map-cluster aggregate markers: coordinates
// whose embedded object also carries a count greater than one. A marker
// reporting N > 1 items at one coordinate signals that more granular data
// exists at finer zoom and should be decomposed with sub-queries.
func Clusters(payload string) []config.ClusterMarker {
	latMatches := structuredLatPattern.FindAllStringSubmatchIndex(payload, -1)
	if len(latMatches) == 0 {
		return nil
	}

	var markers []config.ClusterMarker
	for _, m := range latMatches {
		lat, err := strconv.ParseFloat(payload[m[2]:m[3]], 64)
		if err != nil {
			continue
		}

		windowEnd := m[1] + pairWindow
		if windowEnd > len(payload) {
			windowEnd = len(payload)
		}
		lngMatch := structuredLngPattern.FindStringSubmatchIndex(payload[m[1]:windowEnd])
		if lngMatch == nil {
			continue
		}
		lng, err := strconv.ParseFloat(payload[m[1]+lngMatch[2]:m[1]+lngMatch[3]], 64)
		if err != nil {
			continue
		}
		if !plausibleCoordinate(lat, lng) {
			continue
		}

		start := m[0] - clusterWindow
		if start < 0 {
			start = 0
		}
		end := m[1] + clusterWindow
		if end > len(payload) {
			end = len(payload)
		}
		countMatch := clusterCountPattern.FindStringSubmatch(payload[start:end])
		if countMatch == nil {
			continue
		}
		count, err := strconv.Atoi(countMatch[1])
		if err != nil || count <= 1 {
			continue
		}

		markers = append(markers, config.ClusterMarker{
			Latitude:  lat,
			Longitude: lng,
			Count:     count,
		})
	}

	return markers
}
