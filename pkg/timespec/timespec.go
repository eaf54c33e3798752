// Package timespec parses the time arguments operators pass to restore,
// status and content actions.
//
// Three forms are accepted, tried in order:
//
//	2002-01-25T07:00:00+02:00   ISO 8601, offset optional (reference zone if absent)
//	1h30m, 2W, 1Y6M             relative interval subtracted from the reference time
//	2002/3/5, 3-5-2002          calendar date at midnight in the reference zone
package timespec

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid time %q: %s", e.Input, e.Reason)
}

const (
	Day  = 24 * time.Hour
	Week = 7 * Day
)

var (
	isoPattern      = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})T(\d{2}):(\d{2}):(\d{2})(Z|[+-]\d{2}:\d{2})?$`)
	intervalShape   = regexp.MustCompile(`^(\d+[A-Za-z])+$`)
	intervalToken   = regexp.MustCompile(`(\d+)([A-Za-z])`)
	yearFirstDate   = regexp.MustCompile(`^(\d{4})([/-])(\d{1,2})([/-])(\d{1,2})$`)
	monthFirstDate  = regexp.MustCompile(`^(\d{1,2})([/-])(\d{1,2})([/-])(\d{4})$`)
	fixedUnits      = map[string]time.Duration{"s": time.Second, "m": time.Minute, "h": time.Hour, "D": Day, "W": Week}
	acceptedFormats = "expected ISO datetime (2002-01-25T07:00:00+02:00), interval (e.g. 1h30m; units s,m,h,D,W,M,Y) " +
		"or date (YYYY/MM/DD, YYYY-MM-DD, MM/DD/YYYY, MM-DD-YYYY)"
)

// Parse resolves raw against ref. Times without an explicit offset are
// interpreted in ref's location.
func Parse(raw string, ref time.Time) (time.Time, error) {
	if raw == "" {
		return time.Time{}, &ParseError{Input: raw, Reason: "empty time specification"}
	}

	if isoPattern.MatchString(raw) {
		return parseISO(raw, ref.Location())
	}

	if intervalShape.MatchString(raw) {
		return parseInterval(raw, ref)
	}

	if m := yearFirstDate.FindStringSubmatch(raw); m != nil {
		return parseDate(raw, m[1], m[3], m[5], m[2], m[4], ref.Location())
	}

	if m := monthFirstDate.FindStringSubmatch(raw); m != nil {
		return parseDate(raw, m[5], m[1], m[3], m[2], m[4], ref.Location())
	}

	return time.Time{}, &ParseError{Input: raw, Reason: acceptedFormats}
}

// Format renders t the way the engine's --time flag expects it.
func Format(t time.Time) string {
	return t.Format(time.RFC3339)
}

func parseISO(raw string, loc *time.Location) (time.Time, error) {
	var (
		t   time.Time
		err error
	)

	if m := isoPattern.FindStringSubmatch(raw); m[7] == "" {
		t, err = time.ParseInLocation("2006-01-02T15:04:05", raw, loc)
	} else {
		t, err = time.Parse(time.RFC3339, raw)
	}

	if err != nil {
		return time.Time{}, &ParseError{Input: raw, Reason: err.Error()}
	}

	return t, nil
}

func parseInterval(raw string, ref time.Time) (time.Time, error) {
	seen := make(map[string]bool)

	var fixed time.Duration
	var years, months int

	for _, m := range intervalToken.FindAllStringSubmatch(raw, -1) {
		value, unit := m[1], m[2]

		if seen[unit] {
			return time.Time{}, &ParseError{Input: raw, Reason: fmt.Sprintf("unit %q used more than once", unit)}
		}
		seen[unit] = true

		n, err := strconv.Atoi(value)
		if err != nil {
			return time.Time{}, &ParseError{Input: raw, Reason: fmt.Sprintf("invalid number %q", value)}
		}

		switch {
		case unit == "Y" || unit == "M":
			if n > maxCalendarMonths {
				return time.Time{}, &ParseError{Input: raw, Reason: fmt.Sprintf("interval %s%s is too large", value, unit)}
			}
			if unit == "Y" {
				years = n
			} else {
				months = n
			}
		case fixedUnits[unit] != 0:
			if n > 0 && time.Duration(n) > maxDuration/fixedUnits[unit] {
				return time.Time{}, &ParseError{Input: raw, Reason: fmt.Sprintf("interval %s%s is too large", value, unit)}
			}
			d := time.Duration(n) * fixedUnits[unit]
			if fixed > maxDuration-d {
				return time.Time{}, &ParseError{Input: raw, Reason: "interval is too large"}
			}
			fixed += d
		default:
			return time.Time{}, &ParseError{Input: raw, Reason: fmt.Sprintf("unknown unit %q, %s", unit, acceptedFormats)}
		}
	}

	if years*12+months > ref.Year()*12+int(ref.Month())-1 {
		return time.Time{}, &ParseError{Input: raw, Reason: "interval reaches before year 0"}
	}

	return subtractCalendar(ref, years, months).Add(-fixed), nil
}

const (
	maxDuration       = time.Duration(1<<63 - 1)
	maxCalendarMonths = 12 * 10000
)

// subtractCalendar moves t back by whole years and months, clamping the day
// to the last valid day of the target month (March 31 - 1M = February 28/29).
func subtractCalendar(t time.Time, years, months int) time.Time {
	if years == 0 && months == 0 {
		return t
	}

	total := t.Year()*12 + int(t.Month()) - 1 - years*12 - months
	year, month := total/12, time.Month(total%12+1)

	day := t.Day()
	if last := daysIn(year, month); day > last {
		day = last
	}

	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func parseDate(raw, y, m, d, sep1, sep2 string, loc *time.Location) (time.Time, error) {
	if sep1 != sep2 {
		return time.Time{}, &ParseError{Input: raw, Reason: "mixed date separators"}
	}

	year, _ := strconv.Atoi(y)
	month, _ := strconv.Atoi(m)
	day, _ := strconv.Atoi(d)

	if month < 1 || month > 12 {
		return time.Time{}, &ParseError{Input: raw, Reason: fmt.Sprintf("month %d out of range", month)}
	}

	if day < 1 || day > daysIn(year, time.Month(month)) {
		return time.Time{}, &ParseError{Input: raw, Reason: fmt.Sprintf("day %d out of range", day)}
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc), nil
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
