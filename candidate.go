package weekly

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// Caps applied while collecting candidates.
const (
	MaxTitleRunes      = 200
	DefaultSnippetSize = 400
	eventKeyTitleRunes = 40
)

// Candidate is a dated link found on a listing page or in a feed. It is held
// only in memory for the duration of a run.
type Candidate struct {
	Title string
	URL   string

	// Date is the zero time when no date could be extracted.
	Date time.Time

	// Source is the host the link was found on, without a leading "www.".
	Source string

	// Section names the digest section the candidate's source feeds.
	Section string

	// Snippet holds the first paragraphs of the target page, when requested.
	Snippet string
}

// HasDate reports whether a date was found for the candidate.
func (c *Candidate) HasDate() bool {
	return !c.Date.IsZero()
}

// Key returns the candidate's uniqueness key, (title, url).
func (c *Candidate) Key() string {
	return c.Title + "\x00" + c.URL
}

// EventKey returns the key used for event listings, where the same event is
// often linked twice with slightly different titles.
func (c *Candidate) EventKey() string {
	return FormatISODate(c.Date) + "\x00" + c.URL + "\x00" + TruncateRunes(c.Title, eventKeyTitleRunes)
}

// MarshalJSON writes the date as YYYY-MM-DD and omits it when absent.
func (c *Candidate) MarshalJSON() ([]byte, error) {
	v := struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Date    string `json:"date,omitempty"`
		Source  string `json:"source,omitempty"`
		Section string `json:"section,omitempty"`
		Snippet string `json:"snippet,omitempty"`
	}{
		Title:   c.Title,
		URL:     c.URL,
		Source:  c.Source,
		Section: c.Section,
		Snippet: c.Snippet,
	}
	if c.HasDate() {
		v.Date = FormatISODate(c.Date)
	}
	return json.Marshal(v)
}

// SortByDateDesc orders candidates newest first. Undated candidates keep
// their relative order at the end.
func SortByDateDesc(cands []*Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.HasDate() != b.HasDate() {
			return a.HasDate()
		}
		return a.Date.After(b.Date)
	})
}

// SortByDateAsc orders candidates oldest first, undated last.
func SortByDateAsc(cands []*Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.HasDate() != b.HasDate() {
			return a.HasDate()
		}
		return a.Date.Before(b.Date)
	})
}

// NormalizeSpace collapses runs of whitespace into single spaces and trims
// the result.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TruncateRunes cuts s to at most n runes.
func TruncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// Snippet joins up to maxParas non-empty paragraphs and cuts the result to
// maxChars runes, marking the cut with an ellipsis.
func Snippet(paras []string, maxParas, maxChars int) string {
	var kept []string
	for _, p := range paras {
		p = NormalizeSpace(p)
		if p == "" {
			continue
		}
		kept = append(kept, p)
		if len(kept) == maxParas {
			break
		}
	}
	s := strings.Join(kept, " ")
	if maxChars > 0 && utf8.RuneCountInString(s) > maxChars {
		s = strings.TrimSpace(TruncateRunes(s, maxChars-1)) + "…"
	}
	return s
}
