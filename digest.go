package weekly

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"
)

// Default digest limits.
const (
	DefaultMaxItems    = 5
	MaxItemsCeiling    = 7
	DefaultMaxBriefing = 5
)

// Mode selects the shape the generation service is asked to return.
type Mode string

// Generation modes.
const (
	// ModeJSON asks for a {briefing, sections} JSON object.
	ModeJSON Mode = "json"
	// ModeHTML asks for an HTML body following the section headings.
	ModeHTML Mode = "html"
)

// Digest is the structured result of one generation call. A Digest returned
// by DecodeDigest is already cleaned: every string is decoded, tag-free,
// whitespace-normalized and length-capped, and no slice is nil.
type Digest struct {
	Briefing []BriefingItem `json:"briefing"`
	Sections []Section      `json:"sections"`

	// HTML carries the body returned in ModeHTML. It is untrusted markup.
	HTML string `json:"-"`
}

// BriefingItem is one bullet of the short summary above the sections.
type BriefingItem struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Section groups the items of one editorial heading.
type Section struct {
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

// Item is a single news entry.
type Item struct {
	Title string `json:"title"`
	URL   string `json:"url"`

	// Date is YYYY-MM-DD when the model followed instructions, otherwise
	// whatever it returned.
	Date    string `json:"date_iso"`
	Issuer  string `json:"issuer"`
	Summary string `json:"summary"`
}

// EmptyDigest returns the digest used when a response cannot be parsed.
func EmptyDigest() *Digest {
	return &Digest{Briefing: []BriefingItem{}, Sections: []Section{}}
}

// Items returns the items of the named section, or nil.
func (d *Digest) Items(name string) []Item {
	for _, s := range d.Sections {
		if s.Name == name {
			return s.Items
		}
	}
	return nil
}

// SectionSpec describes one required section of the digest.
type SectionSpec struct {
	Name     string   `yaml:"name" validate:"required"`
	Label    string   `yaml:"label"`
	Issuers  []string `yaml:"issuers"`
	MinItems int      `yaml:"min_items" validate:"gte=0"`
	MaxItems int      `yaml:"max_items" validate:"gte=0,lte=7"`

	// Search lists pages the model must consult for this section when web
	// search is enabled.
	Search []string `yaml:"search"`
}

// Heading returns the label shown above the section.
func (s SectionSpec) Heading() string {
	if s.Label != "" {
		return s.Label
	}
	return s.Name
}

// DefaultSections returns the editorial schema of the IGUV weekly digest.
func DefaultSections() []SectionSpec {
	return []SectionSpec{
		{
			Name:     "FINMA-Updates",
			Issuers:  []string{"FINMA"},
			MaxItems: DefaultMaxItems,
			Search: []string{
				"https://www.finma.ch/de/news/",
				"https://www.finma.ch/de/dokumentation/rundschreiben/",
			},
		},
		{
			Name:     "Sanktionen & Embargos (SECO, OFAC, EU)",
			Issuers:  []string{"SECO", "OFAC", "EU"},
			MaxItems: DefaultMaxItems,
			Search: []string{
				"https://www.seco.admin.ch/seco/de/home/Aussenwirtschaftspolitik_Wirtschaftliche_Zusammenarbeit/Wirtschaftsbeziehungen/exportkontrollen-und-sanktionen/sanktionen-embargos.html",
				"https://ofac.treasury.gov/recent-actions",
				"https://finance.ec.europa.eu/eu-and-world/sanctions-restrictive-measures_en",
			},
		},
		{
			Name:     "Medien-Monitoring",
			MaxItems: DefaultMaxItems,
			Search: []string{
				"https://www.nzz.ch/wirtschaft",
				"https://www.finews.ch/news/finanzplatz",
			},
		},
	}
}

// Limits bounds what is kept from an untrusted digest.
type Limits struct {
	MaxItems    int
	MaxBriefing int
	MaxTitle    int
	MaxSummary  int
	MaxIssuer   int
}

// DefaultLimits returns the caps used for the weekly digest.
func DefaultLimits() Limits {
	return Limits{
		MaxItems:    DefaultMaxItems,
		MaxBriefing: DefaultMaxBriefing,
		MaxTitle:    300,
		MaxSummary:  600,
		MaxIssuer:   80,
	}
}

// DigestRequest is the input of one generation call.
type DigestRequest struct {
	Sections   []SectionSpec
	Candidates []*Candidate

	// Events are listed to the model as context; they are rendered locally.
	Events []*Candidate

	WindowDays int
	WebSearch  bool
	Mode       Mode
	Limits     Limits
}

// Requester asks a text-generation service for a digest.
type Requester interface {
	// RequestDigest returns the cleaned digest for req. An unparseable
	// response yields an empty digest, not an error. Transport failures are
	// retried; once retries are exhausted the error has code EUNAVAILABLE.
	RequestDigest(ctx context.Context, req *DigestRequest) (*Digest, error)
}

// DigestValidator reports schema violations in a raw JSON digest.
type DigestValidator interface {
	Validate(doc string) []string
}

// IsolateJSON returns the text between the first '{' and the last '}'.
func IsolateJSON(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return "", false
	}
	return raw[start : end+1], true
}

// DecodeDigest turns a raw model response into a cleaned digest. It never
// fails: problems are returned as warnings and the result falls back to
// EmptyDigest. When v is non-nil its violations are appended to the warnings.
func DecodeDigest(raw string, limits Limits, v DigestValidator) (*Digest, []string) {
	body, ok := IsolateJSON(raw)
	if !ok {
		return EmptyDigest(), []string{"response contains no JSON object"}
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &top); err != nil {
		return EmptyDigest(), []string{fmt.Sprintf("response is not valid JSON: %v", err)}
	}

	var warnings []string
	if v != nil {
		warnings = append(warnings, v.Validate(body)...)
	}

	limits = limits.withDefaults()
	d := EmptyDigest()

	for _, r := range rawArray(top["briefing"]) {
		if len(d.Briefing) == limits.MaxBriefing {
			break
		}
		if b, ok := decodeBriefing(r, limits); ok {
			d.Briefing = append(d.Briefing, b)
		}
	}

	seen := map[string]bool{}
	for _, r := range rawArray(top["sections"]) {
		obj, ok := rawObject(r)
		if !ok {
			continue
		}
		name := CleanText(stringField(obj, "name", "title"), limits.MaxTitle)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		sec := Section{Name: name, Items: []Item{}}
		for _, ir := range rawArray(obj["items"]) {
			if len(sec.Items) == limits.MaxItems {
				break
			}
			if it, ok := decodeItem(ir, limits); ok {
				sec.Items = append(sec.Items, it)
			}
		}
		d.Sections = append(d.Sections, sec)
	}

	return d, warnings
}

func (l Limits) withDefaults() Limits {
	def := DefaultLimits()
	if l.MaxItems <= 0 {
		l.MaxItems = def.MaxItems
	}
	if l.MaxItems > MaxItemsCeiling {
		l.MaxItems = MaxItemsCeiling
	}
	if l.MaxBriefing <= 0 {
		l.MaxBriefing = def.MaxBriefing
	}
	if l.MaxTitle <= 0 {
		l.MaxTitle = def.MaxTitle
	}
	if l.MaxSummary <= 0 {
		l.MaxSummary = def.MaxSummary
	}
	if l.MaxIssuer <= 0 {
		l.MaxIssuer = def.MaxIssuer
	}
	return l
}

func decodeBriefing(r json.RawMessage, l Limits) (BriefingItem, bool) {
	if s, ok := rawString(r); ok {
		b := BriefingItem{Title: CleanText(s, l.MaxTitle)}
		return b, b.Title != ""
	}
	obj, ok := rawObject(r)
	if !ok {
		return BriefingItem{}, false
	}
	b := BriefingItem{
		Title: CleanText(stringField(obj, "title", "text"), l.MaxTitle),
		URL:   CleanURL(stringField(obj, "url", "link")),
	}
	return b, b.Title != "" || b.URL != ""
}

func decodeItem(r json.RawMessage, l Limits) (Item, bool) {
	if s, ok := rawString(r); ok {
		it := Item{Title: CleanText(s, l.MaxTitle)}
		return it, it.Title != ""
	}
	obj, ok := rawObject(r)
	if !ok {
		return Item{}, false
	}
	it := Item{
		Title:   CleanText(stringField(obj, "title"), l.MaxTitle),
		URL:     CleanURL(stringField(obj, "url", "link")),
		Date:    CleanText(stringField(obj, "date_iso", "date"), 40),
		Issuer:  CleanText(stringField(obj, "issuer", "source"), l.MaxIssuer),
		Summary: CleanText(stringField(obj, "summary", "description"), l.MaxSummary),
	}
	return it, it.Title != "" || it.URL != "" || it.Summary != ""
}

func rawArray(r json.RawMessage) []json.RawMessage {
	var a []json.RawMessage
	if len(r) == 0 || json.Unmarshal(r, &a) != nil {
		return nil
	}
	return a
}

func rawObject(r json.RawMessage) (map[string]json.RawMessage, bool) {
	var m map[string]json.RawMessage
	if json.Unmarshal(r, &m) != nil || m == nil {
		return nil, false
	}
	return m, true
}

func rawString(r json.RawMessage) (string, bool) {
	var s string
	if json.Unmarshal(r, &s) != nil {
		return "", false
	}
	return s, true
}

// stringField returns the first of keys holding a string or a number.
func stringField(obj map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		r, ok := obj[k]
		if !ok {
			continue
		}
		if s, ok := rawString(r); ok {
			return s
		}
		var n json.Number
		if json.Unmarshal(r, &n) == nil {
			return n.String()
		}
	}
	return ""
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

// CleanText decodes HTML entities, strips tags, collapses whitespace and
// cuts the result to max runes.
func CleanText(s string, max int) string {
	s = html.UnescapeString(s)
	s = tagRe.ReplaceAllString(s, " ")
	return TruncateRunes(NormalizeSpace(s), max)
}

// CleanURL returns s when it is an absolute http(s) URL, otherwise "".
func CleanURL(s string) string {
	s = strings.TrimSpace(html.UnescapeString(s))
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return s
}

var fenceRe = regexp.MustCompile("(?s)^\\s*```[a-zA-Z]*\\s*\n(.*?)\n?```\\s*$")

// DecodeHTMLBody strips a surrounding code fence from an HTML-mode response.
// The result is still untrusted markup.
func DecodeHTMLBody(raw string) string {
	if m := fenceRe.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	}
	return strings.TrimSpace(raw)
}

// ItemCap returns the per-section item cap for spec, bounded by limit.
func ItemCap(spec SectionSpec, limit int) int {
	n := limit
	if spec.MaxItems > 0 && (n <= 0 || spec.MaxItems < n) {
		n = spec.MaxItems
	}
	if n <= 0 {
		n = DefaultMaxItems
	}
	if n > MaxItemsCeiling {
		n = MaxItemsCeiling
	}
	return n
}
