package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/iguv/weekly"
)

// strippedElements never survive in model-provided markup.
const strippedElements = "script, style, iframe, object, embed, form, input, button, link, meta, base, noscript, template"

// StripMarkup removes active content from untrusted HTML: scripted and
// embedded elements, event-handler and style attributes, and links that do
// not point to http(s) or mailto targets. The remaining markup is returned
// as a body fragment.
func StripMarkup(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", weekly.Errorf(weekly.EINVALID, "failed to parse HTML: %v", err)
	}

	doc.Find(strippedElements).Remove()

	doc.Find("*").Each(func(_ int, sel *goquery.Selection) {
		node := sel.Get(0)
		kept := node.Attr[:0]
		for _, attr := range node.Attr {
			key := strings.ToLower(attr.Key)
			if strings.HasPrefix(key, "on") || key == "style" || key == "srcdoc" {
				continue
			}
			if (key == "href" || key == "src") && !safeLink(attr.Val) {
				continue
			}
			kept = append(kept, attr)
		}
		node.Attr = kept
	})

	body, err := doc.Find("body").Html()
	if err != nil {
		return "", weekly.Errorf(weekly.EINTERNAL, "failed to render HTML: %v", err)
	}
	return strings.TrimSpace(body), nil
}

func safeLink(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return strings.HasPrefix(v, "http://") ||
		strings.HasPrefix(v, "https://") ||
		strings.HasPrefix(v, "mailto:") ||
		strings.HasPrefix(v, "/") ||
		strings.HasPrefix(v, "#")
}
