package actionitems

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// weekdayNames index weekdays Monday=0 .. Sunday=6, matching the offsets the
// relative-date rules compute with.
var weekdayNames = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

var monthsByName = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

// mondayBased returns the weekday as Monday=0 .. Sunday=6.
func mondayBased(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// datePattern pairs a regexp with a resolver. Patterns are tried in order and
// the first whose resolver succeeds wins; ordering is the tie-break policy,
// not mutual exclusivity.
type datePattern struct {
	re      *regexp.Regexp
	resolve func(match []string, ref time.Time) (time.Time, error)
}

const weekdayAlt = `(monday|tuesday|wednesday|thursday|friday|saturday|sunday)`

var datePatterns = []datePattern{
	{regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`), resolveISODate},
	{regexp.MustCompile(`(\d{1,2}/\d{1,2}/\d{4})`), resolveSlashDate},
	{regexp.MustCompile(`(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s*(\d{4}))?`), resolveMonthDate},
	{regexp.MustCompile(`tomorrow`), resolveTomorrow},
	{regexp.MustCompile(`next\s+` + weekdayAlt), resolveNextWeekday},
	{regexp.MustCompile(`this\s+` + weekdayAlt), resolveThisWeekday},
	{regexp.MustCompile(`by\s+` + weekdayAlt), resolveThisWeekday},
	{regexp.MustCompile(`by\s+(tomorrow)`), resolveTomorrow},
	{regexp.MustCompile(`in\s+(\d+)\s+(day|days|week|weeks)`), resolveRelativeOffset},
	{regexp.MustCompile(`end\s+of\s+(week|month|year)`), resolveEndOfPeriod},
}

// ExtractDueDate recovers a due date from an action item's text by trying a
// fixed cascade of date expressions against the lowercased text. Returns
// (zero, false) when nothing matches: the caller decides the default. A
// resolver failure is a non-match and the cascade continues, so malformed
// date text can never make extraction fail.
func ExtractDueDate(itemText string, referenceDate time.Time) (time.Time, bool) {
	if referenceDate.IsZero() {
		referenceDate = time.Now()
	}

	textLower := strings.ToLower(itemText)

	for _, pattern := range datePatterns {
		match := pattern.re.FindStringSubmatch(textLower)
		if match == nil {
			continue
		}

		due, err := pattern.resolve(match, referenceDate)
		if err != nil {
			continue
		}

		return due, true
	}

	return time.Time{}, false
}

// ParseReferenceDate parses a record timestamp into a reference date for
// relative expressions, defaulting to the time of extraction when the value
// is missing or unparsable.
func ParseReferenceDate(raw string) time.Time {
	if raw == "" {
		return time.Now()
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}

	return time.Now()
}

func resolveISODate(match []string, _ time.Time) (time.Time, error) {
	t, err := time.Parse("2006-01-02", match[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("parse iso date: %w", err)
	}
	return t, nil
}

func resolveSlashDate(match []string, _ time.Time) (time.Time, error) {
	t, err := time.Parse("1/2/2006", match[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("parse slash date: %w", err)
	}
	return t, nil
}

func resolveMonthDate(match []string, ref time.Time) (time.Time, error) {
	month, ok := monthsByName[match[1]]
	if !ok {
		return time.Time{}, fmt.Errorf("unknown month %q", match[1])
	}

	day, err := strconv.Atoi(match[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day: %w", err)
	}

	year := ref.Year()
	if match[3] != "" {
		year, err = strconv.Atoi(match[3])
		if err != nil {
			return time.Time{}, fmt.Errorf("parse year: %w", err)
		}
	}

	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes out-of-range days (February 30 becomes March 2);
	// reject those instead of silently shifting the month.
	if t.Day() != day || t.Month() != month {
		return time.Time{}, fmt.Errorf("day %d out of range for %s", day, month)
	}

	return t, nil
}

func resolveTomorrow(_ []string, ref time.Time) (time.Time, error) {
	return ref.AddDate(0, 0, 1), nil
}

// resolveNextWeekday: "next Monday" said on a Monday means seven days out,
// never today — offsets of zero or less roll to next week.
func resolveNextWeekday(match []string, ref time.Time) (time.Time, error) {
	target, err := weekdayIndex(match[1])
	if err != nil {
		return time.Time{}, err
	}

	daysAhead := target - mondayBased(ref)
	if daysAhead <= 0 {
		daysAhead += 7
	}

	return ref.AddDate(0, 0, daysAhead), nil
}

// resolveThisWeekday: the weekday's occurrence in the current week; a weekday
// already past, or the named day itself, rolls to next week's occurrence.
// "by <weekday>" shares this resolution.
func resolveThisWeekday(match []string, ref time.Time) (time.Time, error) {
	target, err := weekdayIndex(match[1])
	if err != nil {
		return time.Time{}, err
	}

	daysAhead := target - mondayBased(ref)
	if daysAhead <= 0 {
		daysAhead += 7
	}

	return ref.AddDate(0, 0, daysAhead), nil
}

func resolveRelativeOffset(match []string, ref time.Time) (time.Time, error) {
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("parse offset: %w", err)
	}

	switch {
	case strings.HasPrefix(match[2], "day"):
		return ref.AddDate(0, 0, n), nil
	case strings.HasPrefix(match[2], "week"):
		return ref.AddDate(0, 0, 7*n), nil
	}

	return time.Time{}, fmt.Errorf("unknown period %q", match[2])
}

func resolveEndOfPeriod(match []string, ref time.Time) (time.Time, error) {
	switch match[1] {
	case "week":
		// End of the current week (Sunday), inclusive of today.
		daysUntilSunday := (6 - mondayBased(ref)) % 7
		return ref.AddDate(0, 0, daysUntilSunday), nil
	case "month":
		firstOfNext := time.Date(ref.Year(), ref.Month(), 1, ref.Hour(), ref.Minute(), ref.Second(), ref.Nanosecond(), ref.Location()).AddDate(0, 1, 0)
		return firstOfNext.AddDate(0, 0, -1), nil
	case "year":
		return time.Date(ref.Year(), time.December, 31, ref.Hour(), ref.Minute(), ref.Second(), ref.Nanosecond(), ref.Location()), nil
	}

	return time.Time{}, fmt.Errorf("unknown period %q", match[1])
}

func weekdayIndex(name string) (int, error) {
	for i, w := range weekdayNames {
		if w == name {
			return i, nil
		}
	}
	return 0, errors.New("unknown weekday " + name)
}
