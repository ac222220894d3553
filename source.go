package weekly

import (
	"net/url"
	"regexp"
	"strings"
	"time"
)

// SourceKind selects how a source's listing is parsed.
type SourceKind string

// Source kinds.
const (
	SourceHTML SourceKind = "html"
	SourceFeed SourceKind = "feed"
)

// WindowMode selects which dates a source accepts.
type WindowMode string

// Window modes.
const (
	// WindowRecent accepts dates within the last Days days, today included.
	WindowRecent WindowMode = "recent"
	// WindowUpcoming accepts dates from today onwards.
	WindowUpcoming WindowMode = "upcoming"
	// WindowAny accepts every date.
	WindowAny WindowMode = "any"
)

// DefaultMaxLinks bounds the anchors scanned on one listing page.
const DefaultMaxLinks = 400

// Source is a seed page or feed the collector reads candidates from.
type Source struct {
	Name    string     `yaml:"name" validate:"required"`
	URL     string     `yaml:"url" validate:"required,url"`
	Section string     `yaml:"section"`
	Kind    SourceKind `yaml:"kind" validate:"omitempty,oneof=html feed"`
	Window  WindowMode `yaml:"window" validate:"omitempty,oneof=recent upcoming any"`
	Days    int        `yaml:"days" validate:"gte=0"`

	// SameSite drops links that leave the source's host.
	SameSite bool `yaml:"same_site"`

	// RequireDate drops links without a recognizable date.
	RequireDate bool `yaml:"require_date"`

	// Include holds regular expressions; when set, a link must match one of
	// them on its URL or its text.
	Include []string `yaml:"include"`

	// Keywords are literal, case-insensitive additions to Include.
	Keywords []string `yaml:"keywords"`

	// Exclude holds substrings that drop a link when found in its
	// lowercased text.
	Exclude []string `yaml:"exclude"`

	MaxLinks int `yaml:"max_links" validate:"gte=0"`
	MaxItems int `yaml:"max_items" validate:"gte=0"`

	// Snippet fetches each accepted link and keeps its first paragraphs.
	Snippet bool `yaml:"snippet"`

	// Browser fetches the listing with a headless browser.
	Browser bool `yaml:"browser"`
}

// WindowDays returns the configured window, defaulting to DefaultWindowDays.
func (s *Source) WindowDays() int {
	if s.Days > 0 {
		return s.Days
	}
	return DefaultWindowDays
}

// LinkLimit returns the anchor scan cap.
func (s *Source) LinkLimit() int {
	if s.MaxLinks > 0 {
		return s.MaxLinks
	}
	return DefaultMaxLinks
}

// Host returns the source's host without a leading "www.".
func (s *Source) Host() string {
	u, err := url.Parse(s.URL)
	if err != nil {
		return ""
	}
	return TrimWWW(u.Hostname())
}

// AcceptsDate applies the source's date requirement and window.
func (s *Source) AcceptsDate(d time.Time, ok bool, today time.Time) bool {
	if !ok {
		return !s.RequireDate
	}
	switch s.Window {
	case WindowUpcoming:
		return IsUpcoming(d, today)
	case WindowAny:
		return true
	default:
		return WithinWindow(d, today, s.WindowDays())
	}
}

// LinkFilter compiles the source's include, keyword and exclude rules.
func (s *Source) LinkFilter() (*LinkFilter, error) {
	f := &LinkFilter{}
	for _, p := range s.Include {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, Errorf(EINVALID, "source %q: invalid include pattern %q: %v", s.Name, p, err)
		}
		f.Include = append(f.Include, re)
	}
	for _, k := range s.Keywords {
		if k = strings.TrimSpace(k); k == "" {
			continue
		}
		f.Include = append(f.Include, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(k)))
	}
	for _, e := range s.Exclude {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			f.Exclude = append(f.Exclude, e)
		}
	}
	return f, nil
}

// LinkFilter decides whether a link passes a source's text rules.
type LinkFilter struct {
	// Include patterns - if set, the URL or text must match at least one.
	Include []*regexp.Regexp

	// Exclude substrings, matched against the lowercased text.
	Exclude []string
}

// Match returns true if the link passes the filter.
// If the filter is nil, all links pass.
func (f *LinkFilter) Match(href, text string) bool {
	if f == nil {
		return true
	}

	if len(f.Include) > 0 {
		matched := false
		for _, re := range f.Include {
			if re.MatchString(href) || re.MatchString(text) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	lower := strings.ToLower(text)
	for _, sub := range f.Exclude {
		if strings.Contains(lower, sub) {
			return false
		}
	}

	return true
}

// boilerplate holds navigational link texts that never name content.
var boilerplate = map[string]struct{}{
	"home": {}, "startseite": {}, "impressum": {}, "login": {}, "logout": {},
	"anmelden": {}, "registrieren": {}, "kontakt": {}, "contact": {},
	"datenschutz": {}, "datenschutzerklärung": {}, "privacy": {},
	"privacy policy": {}, "cookies": {}, "cookie-einstellungen": {},
	"agb": {}, "sitemap": {}, "suche": {}, "search": {}, "menu": {},
	"menü": {}, "mehr": {}, "weiterlesen": {}, "mehr erfahren": {},
	"read more": {}, "zurück": {}, "back": {}, "newsletter": {},
	"linkedin": {}, "twitter": {}, "facebook": {}, "instagram": {},
	"youtube": {}, "de": {}, "fr": {}, "it": {}, "en": {},
}

// IsBoilerplate reports whether link text is navigation rather than content.
func IsBoilerplate(text string) bool {
	_, ok := boilerplate[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

// TrimWWW strips a leading "www." from a host name.
func TrimWWW(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}
