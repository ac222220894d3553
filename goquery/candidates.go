// Package goquery extracts candidates, snippets and stripped markup from HTML
// using github.com/PuerkitoBio/goquery.
package goquery

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/iguv/weekly"
)

// Ensure CandidateExtractor implements weekly.CandidateExtractor at compile time.
var _ weekly.CandidateExtractor = (*CandidateExtractor)(nil)

// CandidateExtractor finds dated links on HTML listing pages.
type CandidateExtractor struct{}

// NewCandidateExtractor creates a new CandidateExtractor.
func NewCandidateExtractor() *CandidateExtractor {
	return &CandidateExtractor{}
}

// ExtractCandidates walks the anchors of content in document order, up to
// the source's link limit, and keeps those that pass its rules.
func (e *CandidateExtractor) ExtractCandidates(content, pageURL string, src *weekly.Source, today time.Time) ([]*weekly.Candidate, error) {
	admitter, err := weekly.NewAdmitter(pageURL, src, today)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, weekly.Errorf(weekly.EINVALID, "failed to parse HTML: %v", err)
	}

	limit := src.LinkLimit()
	var cands []*weekly.Candidate

	doc.Find("a[href]").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if i >= limit {
			return false
		}
		href, _ := sel.Attr("href")
		if c, ok := admitter.Admit(href, sel.Text()); ok {
			cands = append(cands, c)
		}
		return true
	})

	return cands, nil
}
