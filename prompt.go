package weekly

import (
	"fmt"
	"strings"
)

// BuildInstructions returns the system instruction for a digest request.
func BuildInstructions(req *DigestRequest) string {
	var sb strings.Builder
	sb.WriteString("Du bist Redaktor des IGUV Weekly-Updates für Schweizer Vermögensverwalter und Treuhänder. ")
	fmt.Fprintf(&sb, "Berücksichtige nur Meldungen der letzten %d Tage. ", windowDays(req))
	sb.WriteString("Erfinde keine Meldungen, Daten oder Links; jede Meldung braucht eine Originalquelle. ")
	sb.WriteString("Schreibe auf Deutsch (Schweiz, ohne ß).")

	if req.Mode == ModeHTML {
		sb.WriteString(" Antworte nur mit HTML: je Rubrik ein <h2> mit dem Rubriknamen gefolgt von einer <ul>. ")
		sb.WriteString("Keine Skripte, keine Styles, kein Markdown.")
		return sb.String()
	}

	sb.WriteString(" Antworte ausschliesslich mit einem JSON-Objekt der Form ")
	sb.WriteString(`{"briefing":[{"title":"…","url":"…"}],"sections":[{"name":"…","items":[{"title":"…","url":"…","date_iso":"YYYY-MM-DD","issuer":"…","summary":"…"}]}]}`)
	sb.WriteString(". Kein Text vor oder nach dem JSON.")
	return sb.String()
}

// BuildUserPrompt builds the user prompt containing the schema, the
// candidates and the upcoming events.
func BuildUserPrompt(req *DigestRequest) string {
	limits := req.Limits.withDefaults()

	var sb strings.Builder
	sb.WriteString("<task>\n")
	fmt.Fprintf(&sb, "Erstelle das Weekly-Update: eine Kurzfassung mit höchstens %d Punkten ", limits.MaxBriefing)
	sb.WriteString("und die folgenden Rubriken in dieser Reihenfolge.\n")
	sb.WriteString("</task>\n\n")

	sb.WriteString("<sections>\n")
	for _, s := range req.Sections {
		sb.WriteString("<section>\n")
		fmt.Fprintf(&sb, "<name>%s</name>\n", s.Name)
		fmt.Fprintf(&sb, "<max_items>%d</max_items>\n", ItemCap(s, limits.MaxItems))
		if s.MinItems > 0 {
			fmt.Fprintf(&sb, "<min_items>%d</min_items>\n", s.MinItems)
		}
		if len(s.Issuers) > 0 {
			fmt.Fprintf(&sb, "<issuers>%s</issuers>\n", strings.Join(s.Issuers, ", "))
		}
		if req.WebSearch {
			for _, u := range s.Search {
				fmt.Fprintf(&sb, "<must_search>%s</must_search>\n", u)
			}
		}
		sb.WriteString("</section>\n")
	}
	sb.WriteString("</sections>\n\n")

	sb.WriteString(FormatCandidates(req.Candidates))

	if len(req.Events) > 0 {
		sb.WriteString("\n<events_hint>\n")
		for _, e := range req.Events {
			fmt.Fprintf(&sb, "- %s %s (%s)\n", dateOrBlank(e), e.Title, e.URL)
		}
		sb.WriteString("</events_hint>\n")
	}

	return sb.String()
}

// FormatCandidates formats candidates as prompt context.
func FormatCandidates(cands []*Candidate) string {
	if len(cands) == 0 {
		return "<candidates></candidates>\n"
	}

	var sb strings.Builder
	sb.WriteString("<candidates>\n")
	for i, c := range cands {
		sb.WriteString("<candidate>\n")
		fmt.Fprintf(&sb, "<index>%d</index>\n", i+1)
		fmt.Fprintf(&sb, "<title>%s</title>\n", c.Title)
		fmt.Fprintf(&sb, "<url>%s</url>\n", c.URL)
		if c.HasDate() {
			fmt.Fprintf(&sb, "<date>%s</date>\n", FormatISODate(c.Date))
		}
		if c.Section != "" {
			fmt.Fprintf(&sb, "<section>%s</section>\n", c.Section)
		}
		if c.Source != "" {
			fmt.Fprintf(&sb, "<source>%s</source>\n", c.Source)
		}
		if c.Snippet != "" {
			fmt.Fprintf(&sb, "<snippet>%s</snippet>\n", c.Snippet)
		}
		sb.WriteString("</candidate>\n")
	}
	sb.WriteString("</candidates>\n")
	return sb.String()
}

func windowDays(req *DigestRequest) int {
	if req.WindowDays > 0 {
		return req.WindowDays
	}
	return DefaultWindowDays
}

func dateOrBlank(c *Candidate) string {
	if c.HasDate() {
		return FormatISODate(c.Date)
	}
	return "----------"
}
