package extract

import (
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// facilityKeywords are the facility-type words a name candidate must
// contain (unless it contains a region keyword instead). These follow the
// labeling conventions of Chinese facility directories, which mix English
// and Chinese terms freely.
var facilityKeywords = []string{
	"data center", "datacenter", "idc", "dc",
	"数据中心", "机房", "云计算",
}

// NormalizeName canonicalizes a facility name for comparison and output:
// full-width ASCII is folded to half-width, the text is NFC-normalized,
// and surrounding/internal whitespace runs are collapsed.
//
// Directory pages emit the same name with mixed widths across rendering
// paths, and first-seen-wins naming would otherwise depend on which
// variant arrived first.
func NormalizeName(name string) string {
	if name == "" {
		return ""
	}
	name = width.Narrow.String(name)
	name = norm.NFC.String(name)
	return strings.Join(strings.Fields(name), " ")
}

// LooksLikeFacilityName reports whether a label value is plausibly a
// facility name: it must contain a facility-type keyword or one of the
// region keywords. The value is normalized first, so full-width variants
// match; matching is case-insensitive.
func LooksLikeFacilityName(name string, regionKeywords []string) bool {
	if name == "" {
		return false
	}
	lower := strings.ToLower(NormalizeName(name))

	for _, kw := range facilityKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	for _, kw := range regionKeywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
