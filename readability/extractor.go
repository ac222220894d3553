// Package readability isolates the main content of article pages with
// go-readability before a snippet is taken from it.
package readability

import (
	"strings"

	"github.com/go-shiori/go-readability"
	"github.com/iguv/weekly"
)

// Ensure SnippetExtractor implements weekly.SnippetExtractor at compile time.
var _ weekly.SnippetExtractor = (*SnippetExtractor)(nil)

// SnippetExtractor strips boilerplate with readability and hands the
// remaining article markup to a paragraph-level extractor.
type SnippetExtractor struct {
	paragraphs weekly.SnippetExtractor
}

// NewSnippetExtractor creates a new SnippetExtractor.
func NewSnippetExtractor(paragraphs weekly.SnippetExtractor) *SnippetExtractor {
	return &SnippetExtractor{paragraphs: paragraphs}
}

// ExtractSnippet returns the lead of the page's main content, falling back
// to the article excerpt when the content has no paragraphs.
func (e *SnippetExtractor) ExtractSnippet(rawHTML string, maxChars int) (string, error) {
	if rawHTML == "" {
		return "", weekly.Errorf(weekly.EINVALID, "empty HTML input")
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err != nil {
		return "", err
	}

	s, err := e.paragraphs.ExtractSnippet(article.Content, maxChars)
	if err != nil {
		return "", err
	}
	if s == "" {
		s = weekly.Snippet([]string{article.Excerpt}, 1, maxChars)
	}
	return s, nil
}
