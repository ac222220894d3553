package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/iguv/weekly"
)

// Ensure SnippetExtractor implements weekly.SnippetExtractor at compile time.
var _ weekly.SnippetExtractor = (*SnippetExtractor)(nil)

// snippetParagraphs is how many paragraphs a snippet keeps.
const snippetParagraphs = 2

// SnippetExtractor reads the leading paragraphs of an article page.
type SnippetExtractor struct{}

// NewSnippetExtractor creates a new SnippetExtractor.
func NewSnippetExtractor() *SnippetExtractor {
	return &SnippetExtractor{}
}

// ExtractSnippet returns the first paragraphs of the page's <article>, or of
// the whole document when it has none. Pages without <p> elements fall back
// to the root's visible text.
func (e *SnippetExtractor) ExtractSnippet(html string, maxChars int) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", weekly.Errorf(weekly.EINVALID, "failed to parse HTML: %v", err)
	}

	doc.Find("script, style, noscript, template, nav, header, footer").Remove()

	root := doc.Find("article").First()
	if root.Length() == 0 {
		root = doc.Find("body")
	}

	var paras []string
	root.Find("p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if text := weekly.NormalizeSpace(sel.Text()); text != "" {
			paras = append(paras, text)
		}
		return len(paras) < snippetParagraphs
	})
	if len(paras) == 0 {
		paras = []string{root.Text()}
	}

	return weekly.Snippet(paras, snippetParagraphs, maxChars), nil
}
