package weekly

import "time"

// CandidateExtractor turns one fetched listing into candidates.
type CandidateExtractor interface {
	// ExtractCandidates parses content fetched from pageURL and returns the
	// links that pass src's rules, in document order, deduplicated.
	// today anchors the source's date window.
	ExtractCandidates(content, pageURL string, src *Source, today time.Time) ([]*Candidate, error)
}

// SnippetExtractor pulls a short plain-text lead from an article page.
type SnippetExtractor interface {
	// ExtractSnippet returns the first one or two paragraphs of visible body
	// text, cut to maxChars runes. An empty string means nothing usable.
	ExtractSnippet(html string, maxChars int) (string, error)
}
