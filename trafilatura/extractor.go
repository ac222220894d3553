// Package trafilatura isolates the main content of article pages with
// go-trafilatura before a snippet is taken from it.
package trafilatura

import (
	"bytes"
	"strings"

	"github.com/iguv/weekly"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Ensure SnippetExtractor implements weekly.SnippetExtractor at compile time.
var _ weekly.SnippetExtractor = (*SnippetExtractor)(nil)

// SnippetExtractor strips boilerplate with trafilatura and hands the
// remaining article markup to a paragraph-level extractor.
type SnippetExtractor struct {
	paragraphs weekly.SnippetExtractor
}

// NewSnippetExtractor creates a new SnippetExtractor. paragraphs picks the
// leading paragraphs from the cleaned article.
func NewSnippetExtractor(paragraphs weekly.SnippetExtractor) *SnippetExtractor {
	return &SnippetExtractor{paragraphs: paragraphs}
}

// ExtractSnippet returns the lead of the page's main content.
func (e *SnippetExtractor) ExtractSnippet(rawHTML string, maxChars int) (string, error) {
	if rawHTML == "" {
		return "", weekly.Errorf(weekly.EINVALID, "empty HTML input")
	}

	opts := trafilatura.Options{
		EnableFallback: true,
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err != nil {
		return "", err
	}

	if result.ContentNode == nil {
		return weekly.Snippet(strings.Split(result.ContentText, "\n"), 2, maxChars), nil
	}

	article, err := renderNode(result.ContentNode)
	if err != nil {
		return "", err
	}
	return e.paragraphs.ExtractSnippet(article, maxChars)
}

// renderNode converts an html.Node to a string.
func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
