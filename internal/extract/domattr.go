package extract

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/idcmap/idcmap/internal/model"
)

// attrConvention is one paired attribute-naming convention for
// coordinate-bearing elements. Directory sites vary between data-lat/
// data-lng, the spelled-out forms, and bare lat/lng attributes.
type attrConvention struct {
	lat string
	lng string
}

// attrConventions lists the conventions in probe order.
var attrConventions = []attrConvention{
	{lat: "data-lat", lng: "data-lng"},
	{lat: "data-latitude", lng: "data-longitude"},
	{lat: "lat", lng: "lng"},
}

// nameAttrs are element attributes read as the facility name, in
// preference order, before falling back to the element's own text.
var nameAttrs = []string{"data-name", "data-title", "title", "aria-label"}

// maxTextNameLen bounds element text accepted as a name. Long text is a
// paragraph, not a label.
const maxTextNameLen = 120

// DOMAttr recognizes coordinate-bearing markup elements: any element that
// carries a paired latitude/longitude attribute under one of several
// naming conventions, with an accompanying label attribute or element
// text as the name.
type DOMAttr struct{}

// NewDOMAttr creates the DOM-attribute recognizer.
func NewDOMAttr() *DOMAttr {
	return &DOMAttr{}
}

// Name returns the recognizer family's name.
func (d *DOMAttr) Name() string {
	return "dom-attr"
}

// Attempt parses the payload as markup and reads coordinate attributes.
// A payload that is not parseable markup yields no candidates; goquery's
// HTML parser is lenient, so this almost never rejects outright.
func (d *DOMAttr) Attempt(payload string) []model.Candidate {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(payload))
	if err != nil {
		return nil
	}

	var candidates []model.Candidate
	for _, conv := range attrConventions {
		doc.Find("[" + conv.lat + "]").Each(func(_ int, sel *goquery.Selection) {
			latStr, ok := sel.Attr(conv.lat)
			if !ok {
				return
			}
			lngStr, ok := sel.Attr(conv.lng)
			if !ok {
				return
			}

			lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
			if err != nil {
				return
			}
			lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
			if err != nil {
				return
			}
			if !plausibleCoordinate(lat, lng) {
				return
			}

			candidates = append(candidates, model.Candidate{
				Latitude:  lat,
				Longitude: lng,
				Name:      elementName(sel),
			})
		})
	}

	return candidates
}

// elementName reads the facility name from the element's label attributes,
// falling back to its own text when short enough to be a label.
func elementName(sel *goquery.Selection) string {
	for _, attr := range nameAttrs {
		if v, ok := sel.Attr(attr); ok {
			v = strings.TrimSpace(v)
			if v != "" {
				return v
			}
		}
	}

	text := strings.TrimSpace(sel.Text())
	if text != "" && len(text) <= maxTextNameLen && !strings.Contains(text, "\n") {
		return text
	}
	return ""
}
