package citation

import "fmt"

// SourceDocument is the minimal document view the resolver needs. The
// caller maps its persisted Document rows into this.
type SourceDocument struct {
	Filename string
	// RelPath is the storage path relative to the public root, e.g.
	// "<user_id>/<session_id>/report.pdf".
	RelPath string
}

// FormatResponse rewrites page citation markers into markdown links that
// open the source document at the cited page. With no resolvable document
// the text is returned untouched; unresolved markers degrade to prose
// rather than failing the response.
//
// Rewriting is idempotent: produced links never re-match the marker
// patterns, so formatting an already formatted response is a no-op.
func FormatResponse(text string, docs []SourceDocument) string {
	if text == "" || len(docs) == 0 {
		return text
	}

	// Page markers carry no document identity, so they can only be
	// resolved against a single source. With several documents present the
	// first uploaded one wins; this mirrors the backend's loose contract.
	doc := docs[0]
	if doc.RelPath == "" {
		return text
	}

	link := func(label string, page int) string {
		return fmt.Sprintf("[%s](/public/%s#page=%d)", label, doc.RelPath, page)
	}

	text = inlineRangePattern.ReplaceAllStringFunc(text, func(raw string) string {
		m := inlineRangePattern.FindStringSubmatch(raw)
		marker := rangeMarker(m)
		return fmt.Sprintf(`", %s)`, link(fmt.Sprintf("p. %d-%d", marker.Page, marker.EndPage), marker.Page))
	})
	text = standaloneRangePattern.ReplaceAllStringFunc(text, func(raw string) string {
		m := standaloneRangePattern.FindStringSubmatch(raw)
		marker := rangeMarker(m)
		return fmt.Sprintf("(%s)", link(fmt.Sprintf("p. %d-%d", marker.Page, marker.EndPage), marker.Page))
	})
	text = inlinePattern.ReplaceAllStringFunc(text, func(raw string) string {
		m := inlinePattern.FindStringSubmatch(raw)
		marker := singleMarker(m)
		return fmt.Sprintf(`", %s)`, link(fmt.Sprintf("p. %d", marker.Page), marker.Page))
	})
	text = standalonePattern.ReplaceAllStringFunc(text, func(raw string) string {
		m := standalonePattern.FindStringSubmatch(raw)
		marker := singleMarker(m)
		return fmt.Sprintf("(%s)", link(fmt.Sprintf("p. %d", marker.Page), marker.Page))
	})

	return text
}
