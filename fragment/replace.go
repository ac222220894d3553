// Package fragment replaces the anchored weekly region inside an HTML
// document or an Elementor page tree.
package fragment

import (
	"strings"

	"github.com/iguv/weekly"
	"golang.org/x/net/html"
)

// Replace puts inner into the anchored region of doc.
//
// The first complete marker pair wins: the whole span, markers included,
// becomes the freshly wrapped block. Without markers the
// inner content of the first element carrying the container id is
// replaced. Without either, the wrapped block is appended. Applying Replace
// twice with the same inner yields the same document.
func Replace(doc string, anchor weekly.Anchor, inner string) (string, weekly.Replacement) {
	if start, end, n := locateMarkers(doc, anchor); n > 0 {
		return doc[:start] + anchor.Wrap(inner) + doc[end:], weekly.Replacement{
			Mode:        weekly.ReplaceMarkers,
			Occurrences: n,
		}
	}

	if start, end, n := locateContainer(doc, anchor.ContainerID); n > 0 {
		return doc[:start] + inner + doc[end:], weekly.Replacement{
			Mode:        weekly.ReplaceContainer,
			Occurrences: n,
		}
	}

	var sb strings.Builder
	sb.WriteString(doc)
	if doc != "" && !strings.HasSuffix(doc, "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString(anchor.Wrap(inner))
	return sb.String(), weekly.Replacement{Mode: weekly.ReplaceAppended}
}

// Contains reports whether doc carries the anchor in either form.
func Contains(doc string, anchor weekly.Anchor) bool {
	if _, _, n := locateMarkers(doc, anchor); n > 0 {
		return true
	}
	_, _, n := locateContainer(doc, anchor.ContainerID)
	return n > 0
}

// locateMarkers returns the span of the first complete marker pair, and
// how many start markers doc holds. The pair ends at the first end marker
// that has a start marker before it and starts at the closest such start
// marker, so a start marker left without its end never claims content.
func locateMarkers(doc string, anchor weekly.Anchor) (start, end, n int) {
	if anchor.StartMarker == "" || anchor.EndMarker == "" {
		return 0, 0, 0
	}
	from := 0
	for {
		rel := strings.Index(doc[from:], anchor.EndMarker)
		if rel < 0 {
			return 0, 0, 0
		}
		endIdx := from + rel
		start = strings.LastIndex(doc[:endIdx], anchor.StartMarker)
		if start >= 0 {
			end = endIdx + len(anchor.EndMarker)
			return start, end, strings.Count(doc, anchor.StartMarker)
		}
		from = endIdx + len(anchor.EndMarker)
	}
}

// locateContainer returns the byte span of the inner content of the first
// element whose id is id, and how many elements carry that id.
func locateContainer(doc, id string) (start, end, n int) {
	if id == "" {
		return 0, 0, 0
	}

	z := html.NewTokenizer(strings.NewReader(doc))
	offset := 0
	found := false
	var tag string
	depth := 0

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		size := len(z.Raw())

		switch tt {
		case html.StartTagToken:
			name, hasAttr := z.TagName()
			if found && depth > 0 && string(name) == tag {
				depth++
			}
			if hasAttr && hasID(z, id) {
				n++
				if !found {
					found = true
					tag = string(name)
					depth = 1
					start = offset + size
				}
			}
		case html.SelfClosingTagToken:
			if _, hasAttr := z.TagName(); hasAttr && hasID(z, id) {
				n++
			}
		case html.EndTagToken:
			if found && depth > 0 {
				name, _ := z.TagName()
				if string(name) == tag {
					depth--
					if depth == 0 {
						end = offset
					}
				}
			}
		}
		offset += size
	}

	if !found || depth != 0 {
		return 0, 0, 0
	}
	return start, end, n
}

func hasID(z *html.Tokenizer, id string) bool {
	for {
		key, val, more := z.TagAttr()
		if string(key) == "id" && string(val) == id {
			return true
		}
		if !more {
			return false
		}
	}
}
