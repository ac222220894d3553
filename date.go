package weekly

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultWindowDays is the look-back window used when a source does not set one.
const DefaultWindowDays = 7

var germanMonthNames = [12]string{
	"Januar", "Februar", "März", "April", "Mai", "Juni",
	"Juli", "August", "September", "Oktober", "November", "Dezember",
}

// germanMonths maps lowercased month names and their common abbreviations.
var germanMonths = map[string]time.Month{
	"januar": time.January, "jan": time.January, "jänner": time.January,
	"februar": time.February, "feb": time.February,
	"märz": time.March, "maerz": time.March, "mär": time.March, "mrz": time.March,
	"april": time.April, "apr": time.April,
	"mai": time.May,
	"juni": time.June, "jun": time.June,
	"juli": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"oktober": time.October, "okt": time.October,
	"november": time.November, "nov": time.November,
	"dezember": time.December, "dez": time.December,
}

type dateRule struct {
	re    *regexp.Regexp
	parse func(m []string) (time.Time, bool)
}

// dateRules are tried in order. The first rule whose pattern matches decides
// the result, even when the matched digits do not form a valid date.
var dateRules = []dateRule{
	{
		re: regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`),
		parse: func(m []string) (time.Time, bool) {
			return newDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))
		},
	},
	{
		re: regexp.MustCompile(`(\d{1,2})\.(\d{1,2})\.(\d{4})`),
		parse: func(m []string) (time.Time, bool) {
			return newDate(atoi(m[3]), atoi(m[2]), atoi(m[1]))
		},
	},
	{
		re: regexp.MustCompile(`/(\d{4})/(\d{1,2})/`),
		parse: func(m []string) (time.Time, bool) {
			return newDate(atoi(m[1]), atoi(m[2]), 1)
		},
	},
	{
		re: regexp.MustCompile(`(?i)(\d{1,2})\.\s*([a-zäöü]+)\.?\s+(\d{4})`),
		parse: func(m []string) (time.Time, bool) {
			month, ok := germanMonths[strings.ToLower(m[2])]
			if !ok {
				return time.Time{}, false
			}
			return newDate(atoi(m[3]), int(month), atoi(m[1]))
		},
	},
}

// ExtractDate finds a calendar date in free text or a URL. Recognized shapes
// are ISO (2025-03-15), Swiss dotted (15.03.2025), a /2025/03/ path segment
// (first of month) and German textual dates (15. März 2025). Text without a
// recognizable or valid date yields false; this never fails.
func ExtractDate(s string) (time.Time, bool) {
	for _, rule := range dateRules {
		m := rule.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		return rule.parse(m)
	}
	return time.Time{}, false
}

// newDate returns midnight UTC of the given day, rejecting combinations that
// time.Date would silently normalize (31.02. becomes 02.03.).
func newDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// Day truncates t to its calendar day in t's location, returned as midnight UTC
// so that dates compare by whole days.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WithinWindow reports whether d lies between today-days and today inclusive.
// Future dates are outside the window.
func WithinWindow(d, today time.Time, days int) bool {
	diff := int(Day(today).Sub(Day(d)).Hours() / 24)
	return diff >= 0 && diff <= days
}

// IsUpcoming reports whether d is today or later.
func IsUpcoming(d, today time.Time) bool {
	return !Day(d).Before(Day(today))
}

// FormatISODate formats t as YYYY-MM-DD.
func FormatISODate(t time.Time) string {
	return t.Format(time.DateOnly)
}

// ParseISODate parses the leading YYYY-MM-DD of s.
func ParseISODate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 10 {
		return time.Time{}, false
	}
	t, err := time.Parse(time.DateOnly, s[:10])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatGermanDate formats t as "15. März 2025".
func FormatGermanDate(t time.Time) string {
	return fmt.Sprintf("%d. %s %d", t.Day(), germanMonthNames[t.Month()-1], t.Year())
}

// DisplayDate renders an ISO date string in German. Anything that is not an
// ISO date is returned unchanged.
func DisplayDate(s string) string {
	if t, ok := ParseISODate(s); ok {
		return FormatGermanDate(t)
	}
	return s
}
