package mock

import (
	"time"

	"github.com/iguv/weekly"
)

var _ weekly.CandidateExtractor = (*CandidateExtractor)(nil)

// CandidateExtractor is a mock implementation of weekly.CandidateExtractor.
type CandidateExtractor struct {
	ExtractCandidatesFn func(content, pageURL string, src *weekly.Source, today time.Time) ([]*weekly.Candidate, error)
}

func (e *CandidateExtractor) ExtractCandidates(content, pageURL string, src *weekly.Source, today time.Time) ([]*weekly.Candidate, error) {
	return e.ExtractCandidatesFn(content, pageURL, src, today)
}

var _ weekly.SnippetExtractor = (*SnippetExtractor)(nil)

// SnippetExtractor is a mock implementation of weekly.SnippetExtractor.
type SnippetExtractor struct {
	ExtractSnippetFn func(html string, maxChars int) (string, error)
}

func (e *SnippetExtractor) ExtractSnippet(html string, maxChars int) (string, error) {
	return e.ExtractSnippetFn(html, maxChars)
}
