package weekly

import (
	"net/url"
	"strings"
	"time"
)

// Admitter applies a source's per-link rules to the links of one listing.
// It remembers what it admitted, so a link seen twice is admitted once.
type Admitter struct {
	base   *url.URL
	host   string
	src    *Source
	filter *LinkFilter
	today  time.Time
	seen   map[string]struct{}
}

// NewAdmitter prepares the rules of src for the page at pageURL.
func NewAdmitter(pageURL string, src *Source, today time.Time) (*Admitter, error) {
	base, err := url.Parse(pageURL)
	if err != nil || base.Host == "" {
		return nil, Errorf(EINVALID, "invalid page URL %q", pageURL)
	}
	filter, err := src.LinkFilter()
	if err != nil {
		return nil, err
	}
	return &Admitter{
		base:   base,
		host:   TrimWWW(base.Hostname()),
		src:    src,
		filter: filter,
		today:  today,
		seen:   make(map[string]struct{}),
	}, nil
}

// Admit returns the candidate for an anchor with the given href and visible
// text, or false when a rule rejects it or it was admitted before.
func (a *Admitter) Admit(href, text string) (*Candidate, bool) {
	return a.AdmitDated(href, text, time.Time{})
}

// AdmitDated is Admit with a date known from structured metadata, such as a
// feed item's publish date. A zero date falls back to text and href.
func (a *Admitter) AdmitDated(href, text string, known time.Time) (*Candidate, bool) {
	if href == "" || isNonHTTPLink(href) {
		return nil, false
	}

	text = NormalizeSpace(text)
	if text == "" || IsBoilerplate(text) {
		return nil, false
	}

	resolved := resolveURL(a.base, href)
	if resolved == "" {
		return nil, false
	}

	if a.src.SameSite && !isSameSite(a.host, resolved) {
		return nil, false
	}

	if !a.filter.Match(resolved, text) {
		return nil, false
	}

	d, ok := Day(known), !known.IsZero()
	if !ok {
		d, ok = ExtractDate(text)
	}
	if !ok {
		d, ok = ExtractDate(resolved)
	}
	if !a.src.AcceptsDate(d, ok, a.today) {
		return nil, false
	}

	c := &Candidate{
		Title:   TruncateRunes(text, MaxTitleRunes),
		URL:     resolved,
		Source:  a.host,
		Section: a.src.Section,
	}
	if ok {
		c.Date = d
	}

	key := c.Key()
	if a.src.Window == WindowUpcoming {
		key = c.EventKey()
	}
	if _, dup := a.seen[key]; dup {
		return nil, false
	}
	a.seen[key] = struct{}{}
	return c, true
}

// resolveURL resolves a relative URL against a base URL.
// Returns empty string if the href cannot be parsed, does not resolve to an
// http(s) URL, or is self-referential (same as base URL after stripping
// fragment). Fragments are stripped for deduplication purposes.
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}

	result := resolved.String()
	baseNoFragment := *base
	baseNoFragment.Fragment = ""
	if result == baseNoFragment.String() {
		return ""
	}
	return result
}

// isSameSite checks if the resolved URL belongs to host, ignoring a leading
// "www.".
func isSameSite(host string, resolved string) bool {
	u, err := url.Parse(resolved)
	if err != nil {
		return false
	}
	return TrimWWW(u.Hostname()) == host
}

// isNonHTTPLink checks if a href is a non-HTTP link that should be skipped.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:")
}
