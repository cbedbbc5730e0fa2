package daterange

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Filter names a dashboard date filter.
type Filter string

const (
	FilterAll        Filter = "all"
	FilterDefault    Filter = "default"
	FilterLastWeek   Filter = "lastWeek"
	FilterLast7Days  Filter = "last7days"
	FilterLastMonth  Filter = "lastMonth"
	FilterLast30Days Filter = "last30days"
	FilterLastYear   Filter = "lastyear"
	FilterCustom     Filter = "custom"
)

// Range is an inclusive instant range. Start sits at 00:00:00.000 of its day
// and End at 23:59:59.999 of its day. A nil *Range means "no filter".
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Resolve resolves filter against the current time.
func Resolve(filter Filter, customStart, customEnd string) *Range {
	return ResolveAt(time.Now(), filter, customStart, customEnd)
}

// ResolveAt resolves filter as if today were now. Unknown filters and a custom
// filter without both dates resolve to nil.
func ResolveAt(now time.Time, filter Filter, customStart, customEnd string) *Range {
	end := EndOfDay(now)
	today := StartOfDay(now)

	switch filter {
	case FilterLastWeek, FilterLast7Days:
		return &Range{Start: today.AddDate(0, 0, -7), End: end}
	case FilterLastMonth, FilterLast30Days:
		return &Range{Start: today.AddDate(0, 0, -30), End: end}
	case FilterLastYear:
		return &Range{Start: today.AddDate(-1, 0, 0), End: end}
	case FilterCustom:
		if strings.TrimSpace(customStart) == "" || strings.TrimSpace(customEnd) == "" {
			return nil
		}
		start, ok := ParseDate(customStart, now)
		if !ok {
			return nil
		}
		stop, ok := ParseDate(customEnd, now)
		if !ok {
			return nil
		}
		return Custom(start, stop)
	default:
		return nil
	}
}

// Custom builds a range covering the whole days of a and b, in either order.
func Custom(a, b time.Time) *Range {
	if b.Before(a) {
		a, b = b, a
	}
	return &Range{Start: StartOfDay(a), End: EndOfDay(b)}
}

func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// InRange reports whether t, taken as a calendar day, lies inside r.
func InRange(t time.Time, r *Range) bool {
	if r == nil {
		return true
	}
	day := StartOfDay(t.In(r.Start.Location()))
	return !day.Before(r.Start) && !day.After(r.End)
}

// RecordInRange parses a raw record date and tests it against r. With a
// filter in place, a blank or unreadable date never matches.
func RecordInRange(raw string, r *Range, now time.Time) bool {
	if r == nil {
		return true
	}
	t, ok := ParseDate(raw, now)
	if !ok {
		return false
	}
	return InRange(t, r)
}

var (
	leadingInt = regexp.MustCompile(`^[+-]?\d+`)
	fourDigits = regexp.MustCompile(`\d{4}`)
)

// parseLeadingInt reads the integer prefix of s ("2024 10:30" is 2024).
func parseLeadingInt(s string) (int, bool) {
	m := leadingInt.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Layouts tried for free-form dates, after the slash formats.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-1-2",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"Mon Jan 2 2006",
	"Mon, 02 Jan 2006",
	time.RFC1123,
	time.RFC1123Z,
}

var monthNames = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

func expandYear(y int) int {
	if y >= 0 && y < 100 {
		return y + 2000
	}
	return y
}

// ParseDate reads a record date. Formats are tried in order: M/D/YYYY,
// M/YYYY (day 1), the free-form layouts above, then a month name or
// abbreviation anywhere in the text with a 4-digit year (day 1, current year
// of now when no year is present). Dates are built in now's location.
func ParseDate(raw string, now time.Time) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	loc := now.Location()

	parts := strings.Split(s, "/")
	switch len(parts) {
	case 3:
		a, aok := parseLeadingInt(parts[0])
		b, bok := parseLeadingInt(parts[1])
		c, cok := parseLeadingInt(parts[2])
		if aok && bok && cok {
			if len(strings.TrimSpace(parts[0])) == 4 {
				// YYYY/MM/DD
				return time.Date(a, time.Month(b), c, 0, 0, 0, 0, loc), true
			}
			return time.Date(expandYear(c), time.Month(a), b, 0, 0, 0, 0, loc), true
		}
	case 2:
		m, mok := parseLeadingInt(parts[0])
		y, yok := parseLeadingInt(parts[1])
		if mok && yok {
			return time.Date(expandYear(y), time.Month(m), 1, 0, 0, 0, 0, loc), true
		}
	}

	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}

	if m, ok := monthIn(strings.ToLower(s)); ok {
		year := now.Year()
		if y := fourDigits.FindString(s); y != "" {
			year, _ = strconv.Atoi(y)
		}
		return time.Date(year, m, 1, 0, 0, 0, 0, loc), true
	}
	return time.Time{}, false
}

// monthIn finds the first month whose full name or 3-letter abbreviation
// occurs in lower.
func monthIn(lower string) (time.Month, bool) {
	for i, name := range monthNames {
		if strings.Contains(lower, name) || strings.Contains(lower, name[:3]) {
			return time.Month(i + 1), true
		}
	}
	return 0, false
}

// ParseMonth reads a Month column cell: "3", "03/2024", "March", "Mar 2024".
// The year defaults to now's year when the text carries none.
func ParseMonth(raw string, now time.Time) (time.Month, int, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, 0, false
	}

	if parts := strings.Split(s, "/"); len(parts) == 2 {
		m, mok := parseLeadingInt(parts[0])
		y, yok := parseLeadingInt(parts[1])
		if mok && yok && m >= 1 && m <= 12 {
			return time.Month(m), expandYear(y), true
		}
	}

	if n, ok := parseLeadingInt(s); ok && n >= 1 && n <= 12 {
		return time.Month(n), now.Year(), true
	}

	if m, ok := monthIn(strings.ToLower(s)); ok {
		year := now.Year()
		if y := fourDigits.FindString(s); y != "" {
			year, _ = strconv.Atoi(y)
		}
		return m, year, true
	}
	return 0, 0, false
}

// MonthInRange reports whether the given month overlaps r, with r widened to
// whole months.
func MonthInRange(month time.Month, year int, r *Range) bool {
	if r == nil {
		return true
	}
	loc := r.Start.Location()
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	rangeStart := time.Date(r.Start.Year(), r.Start.Month(), 1, 0, 0, 0, 0, loc)
	rangeEnd := time.Date(r.End.Year(), r.End.Month()+1, 0, 0, 0, 0, 0, loc)
	return !first.Before(rangeStart) && !first.After(rangeEnd)
}
