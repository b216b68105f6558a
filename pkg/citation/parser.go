package citation

import (
	"regexp"
	"strconv"
)

// Marker syntax note: the model is instructed to cite pages as (p. X), but
// the exact emission format is the backend's contract, not ours. Resolution
// is therefore best effort; anything that does not match is left as prose.

// Marker patterns, ordered so range and quoted-inline variants are handled
// before the plain standalone form:
//
//	", p. X)     inline citation closing a quote
//	", p. X-Y)   inline range citation
//	(p. X)       standalone citation
//	(p. X-Y)     standalone range citation
var (
	inlineRangePattern     = regexp.MustCompile(`",\s*p\.\s*(\d+)-(\d+)\)`)
	inlinePattern          = regexp.MustCompile(`",\s*p\.\s*(\d+)\)`)
	standaloneRangePattern = regexp.MustCompile(`\(p\.\s*(\d+)-(\d+)\)`)
	standalonePattern      = regexp.MustCompile(`\(p\.\s*(\d+)\)`)
)

// Marker is one page citation extracted from response text.
type Marker struct {
	Page    int
	EndPage int // 0 unless the marker is a range
	Raw     string
}

// ParseMarkers extracts every page citation from a model response.
func ParseMarkers(text string) []Marker {
	markers := make([]Marker, 0)

	for _, m := range inlineRangePattern.FindAllStringSubmatch(text, -1) {
		markers = append(markers, rangeMarker(m))
	}
	for _, m := range standaloneRangePattern.FindAllStringSubmatch(text, -1) {
		markers = append(markers, rangeMarker(m))
	}
	for _, m := range inlinePattern.FindAllStringSubmatch(text, -1) {
		markers = append(markers, singleMarker(m))
	}
	for _, m := range standalonePattern.FindAllStringSubmatch(text, -1) {
		markers = append(markers, singleMarker(m))
	}

	return markers
}

func singleMarker(m []string) Marker {
	page, _ := strconv.Atoi(m[1])
	return Marker{Page: page, Raw: m[0]}
}

func rangeMarker(m []string) Marker {
	page, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	return Marker{Page: page, EndPage: end, Raw: m[0]}
}
