// Package render turns a digest into the HTML fragment published on the
// site.
package render

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/iguv/weekly"
)

//go:embed weekly.html.tmpl
var fragmentTemplate string

//go:embed weekly.css
var fragmentCSS string

var tmpl = template.Must(template.New("weekly").Parse(fragmentTemplate))

// Default German labels.
const (
	DefaultTitle         = "Weekly-Updates"
	DefaultBriefingLabel = "Kurzfassung (4–5 Punkte):"
	DefaultEventsHeading = "Nächste IGUV/InPaSu Events"
	DefaultEmptyEvents   = "Derzeit keine kommenden Termine veröffentlicht."
	DefaultEmptySection  = "Keine neuen, relevanten Meldungen in den letzten %d Tagen."
	DefaultDisclaimer    = "Massgebend sind die verlinkten Originalquellen. Zeitraum: letzte %d Tage. IGUV-Events: nächste Termine."
)

// Sanitizer reduces untrusted markup to something safe to embed.
type Sanitizer func(html string) (string, error)

// Renderer renders digests with a fixed section order.
type Renderer struct {
	title         string
	briefingLabel string
	eventsHeading string
	emptyEvents   string
	emptySection  string
	disclaimer    string
	sanitize      Sanitizer
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithTitle sets the fragment heading.
func WithTitle(title string) Option {
	return func(r *Renderer) {
		r.title = title
	}
}

// WithDisclaimer sets the footer line. A %d verb receives the window in days.
func WithDisclaimer(format string) Option {
	return func(r *Renderer) {
		r.disclaimer = format
	}
}

// WithEmptySection sets the placeholder for sections without items. A %d
// verb receives the window in days.
func WithEmptySection(format string) Option {
	return func(r *Renderer) {
		r.emptySection = format
	}
}

// WithEvents sets the events heading and its placeholder.
func WithEvents(heading, empty string) Option {
	return func(r *Renderer) {
		r.eventsHeading = heading
		r.emptyEvents = empty
	}
}

// WithSanitizer sets how an HTML-mode body is cleaned before embedding.
// Without one the body is escaped as text.
func WithSanitizer(s Sanitizer) Option {
	return func(r *Renderer) {
		r.sanitize = s
	}
}

// NewRenderer creates a new Renderer.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		title:         DefaultTitle,
		briefingLabel: DefaultBriefingLabel,
		eventsHeading: DefaultEventsHeading,
		emptyEvents:   DefaultEmptyEvents,
		emptySection:  DefaultEmptySection,
		disclaimer:    DefaultDisclaimer,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Input is everything one fragment is built from.
type Input struct {
	Digest   *weekly.Digest
	Sections []weekly.SectionSpec
	Events   []*weekly.Candidate

	// ShowEvents adds the events block, with its placeholder when Events
	// is empty.
	ShowEvents bool

	GeneratedAt time.Time
	WindowDays  int
	MaxItems    int
}

type view struct {
	CSS           template.CSS
	Title         string
	Stand         string
	BriefingLabel string
	Briefing      []weekly.BriefingItem
	Body          template.HTML
	Sections      []sectionView
	EmptySection  string
	ShowEvents    bool
	EventsHeading string
	Events        []eventView
	EmptyEvents   string
	Disclaimer    string
}

type sectionView struct {
	Heading string
	Items   []itemView
}

type itemView struct {
	Date    string
	Title   string
	Issuer  string
	URL     string
	Summary string
}

type eventView struct {
	Date  string
	Title string
	URL   string
}

// Render returns the inner HTML of the published region.
func (r *Renderer) Render(in Input) (string, error) {
	d := in.Digest
	if d == nil {
		d = weekly.EmptyDigest()
	}
	days := in.WindowDays
	if days <= 0 {
		days = weekly.DefaultWindowDays
	}

	v := view{
		CSS:           template.CSS(fragmentCSS),
		Title:         r.title,
		Stand:         weekly.FormatGermanDate(in.GeneratedAt),
		BriefingLabel: r.briefingLabel,
		Briefing:      briefing(d.Briefing),
		EmptySection:  withDays(r.emptySection, days),
		ShowEvents:    in.ShowEvents,
		EventsHeading: r.eventsHeading,
		EmptyEvents:   r.emptyEvents,
		Disclaimer:    withDays(r.disclaimer, days),
	}

	if d.HTML != "" {
		body, err := r.body(d.HTML)
		if err != nil {
			return "", err
		}
		v.Body = body
	}

	for _, spec := range in.Sections {
		items := d.Items(spec.Name)
		if n := weekly.ItemCap(spec, in.MaxItems); len(items) > n {
			items = items[:n]
		}
		sv := sectionView{Heading: spec.Heading()}
		for _, it := range items {
			title := it.Title
			if title == "" {
				title = "(ohne Titel)"
			}
			sv.Items = append(sv.Items, itemView{
				Date:    weekly.DisplayDate(it.Date),
				Title:   title,
				Issuer:  it.Issuer,
				URL:     it.URL,
				Summary: it.Summary,
			})
		}
		v.Sections = append(v.Sections, sv)
	}

	for _, e := range in.Events {
		ev := eventView{Title: e.Title, URL: e.URL}
		if ev.Title == "" {
			ev.Title = "(Event)"
		}
		if e.HasDate() {
			ev.Date = weekly.FormatGermanDate(e.Date)
		}
		v.Events = append(v.Events, ev)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("render fragment: %w", err)
	}
	return buf.String(), nil
}

func (r *Renderer) body(raw string) (template.HTML, error) {
	if r.sanitize == nil {
		return template.HTML(template.HTMLEscapeString(raw)), nil
	}
	s, err := r.sanitize(raw)
	if err != nil {
		return "", fmt.Errorf("sanitize body: %w", err)
	}
	return template.HTML(s), nil
}

func withDays(format string, days int) string {
	if !strings.Contains(format, "%d") {
		return format
	}
	return fmt.Sprintf(format, days)
}

func briefing(items []weekly.BriefingItem) []weekly.BriefingItem {
	out := make([]weekly.BriefingItem, 0, len(items))
	for _, b := range items {
		if b.Title == "" && b.URL == "" {
			continue
		}
		out = append(out, b)
		if len(out) == weekly.DefaultMaxBriefing {
			break
		}
	}
	return out
}
