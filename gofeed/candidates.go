// Package gofeed extracts candidates from RSS and Atom feeds using
// github.com/mmcdole/gofeed.
package gofeed

import (
	"strings"
	"time"

	"github.com/iguv/weekly"
	"github.com/mmcdole/gofeed"
)

// Ensure CandidateExtractor implements weekly.CandidateExtractor at compile time.
var _ weekly.CandidateExtractor = (*CandidateExtractor)(nil)

// CandidateExtractor turns feed items into candidates. Item dates come from
// the feed's published or updated timestamps, falling back to the title and
// link like HTML listings do.
type CandidateExtractor struct {
	// SnippetChars bounds the description kept as snippet when the source
	// asks for snippets. Zero uses weekly.DefaultSnippetSize.
	SnippetChars int
}

// NewCandidateExtractor creates a new CandidateExtractor.
func NewCandidateExtractor() *CandidateExtractor {
	return &CandidateExtractor{}
}

// ExtractCandidates parses content as a feed fetched from pageURL.
func (e *CandidateExtractor) ExtractCandidates(content, pageURL string, src *weekly.Source, today time.Time) ([]*weekly.Candidate, error) {
	admitter, err := weekly.NewAdmitter(pageURL, src, today)
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().ParseString(content)
	if err != nil {
		return nil, weekly.Errorf(weekly.EINVALID, "failed to parse feed: %v", err)
	}

	limit := src.LinkLimit()
	var cands []*weekly.Candidate
	for i, item := range feed.Items {
		if i >= limit {
			break
		}

		c, ok := admitter.AdmitDated(itemLink(item), item.Title, itemDate(item))
		if !ok {
			continue
		}
		if src.Snippet {
			c.Snippet = e.snippet(item)
		}
		cands = append(cands, c)
	}

	return cands, nil
}

func (e *CandidateExtractor) snippet(item *gofeed.Item) string {
	text := item.Description
	if text == "" {
		text = item.Content
	}
	n := e.SnippetChars
	if n <= 0 {
		n = weekly.DefaultSnippetSize
	}
	return weekly.Snippet([]string{weekly.CleanText(text, 0)}, 1, n)
}

func itemLink(item *gofeed.Item) string {
	link := strings.TrimSpace(item.Link)
	if link == "" && len(item.Links) > 0 {
		link = strings.TrimSpace(item.Links[0])
	}
	if i := strings.Index(link, "?utm_"); i > 0 {
		link = link[:i]
	}
	return link
}

func itemDate(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	return time.Time{}
}
