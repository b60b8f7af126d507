package core

// dates.go resolves date-like spreadsheet cells to a calendar date without
// any locale hint.
//
// Resolution is an ordered list of (pattern, interpreter) rules. The first rule
// whose pattern matches and whose interpretation is a real calendar date wins;
// if no rule yields a date, a fixed list of generic layouts is tried. Every
// result is range-checked against [MinDateYear, current year].
//
// Known ambiguity: for year-first input where both parts are <= 12
// ("1985/03/04"), month-first is assumed. Genuinely day-first data in that
// shape resolves to the wrong day and month with no error.
//
// The resolver never consults the local timezone or locale: all results are
// midnight UTC of the resolved calendar date.

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// MinDateYear is the earliest calendar year accepted for any resolved date.
const MinDateYear = 1900

var (
	// ErrUnresolvableDate is returned when no rule or layout matches the input.
	ErrUnresolvableDate = errors.New("invalid date")

	// ErrDateOutOfRange is returned when the resolved year is before
	// MinDateYear or after the current year.
	ErrDateOutOfRange = errors.New("date out of range")
)

// dateRule is one step of the ordered resolution list.
type dateRule struct {
	name      string
	pattern   *regexp.Regexp
	interpret func(m []string) (year, month, day int, ok bool)
}

var dateRules = []dateRule{
	{
		name:      "year-first dash",
		pattern:   regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`),
		interpret: interpretYearFirst,
	},
	{
		name:      "year-first slash",
		pattern:   regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})$`),
		interpret: interpretYearFirst,
	},
	{
		name:      "year-last slash",
		pattern:   regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`),
		interpret: interpretDayMonthYear,
	},
	{
		name:      "year-last dash",
		pattern:   regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`),
		interpret: interpretDayMonthYear,
	},
}

// fallbackLayouts are tried in order once no rule produced a date.
// "1/2/2006" is last: it only sees slash dates the day-first rule rejected.
var fallbackLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"02-Jan-2006",
	"Mon Jan 2 2006",
	"Mon, 02 Jan 2006",
	"20060102",
	"2.1.2006",
	"1/2/2006",
}

// spreadsheetEpoch is day zero for spreadsheet serial date numbers.
var spreadsheetEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// maxSerialDay is the serial number of 9999-12-31.
const maxSerialDay = 2958465

// interpretYearFirst reads YYYY-P1-P2. A part above 12 can only be the day;
// when both parts fit a month, month-first is preferred.
func interpretYearFirst(m []string) (int, int, int, bool) {
	year, p1, p2 := atoi(m[1]), atoi(m[2]), atoi(m[3])

	switch {
	case p1 > 12 && p2 <= 12:
		// Covers the day-first fallback too; days past 31 fail calendar validation.
		return year, p2, p1, true
	case p2 > 12 && p1 <= 12:
		return year, p1, p2, true
	case p1 <= 12 && p2 <= 12:
		return year, p1, p2, true
	}
	return 0, 0, 0, false
}

// interpretDayMonthYear reads D1-D2-YYYY as day, month, year.
func interpretDayMonthYear(m []string) (int, int, int, bool) {
	return atoi(m[3]), atoi(m[2]), atoi(m[1]), true
}

// DateResolver turns date-like scalars into calendar dates.
// The zero value uses time.Now for the upper year bound.
type DateResolver struct {
	now func() time.Time
}

// NewDateResolver returns a resolver whose "current year" comes from now.
// A nil now uses time.Now.
func NewDateResolver(now func() time.Time) DateResolver {
	return DateResolver{now: now}
}

var defaultResolver = DateResolver{}

// ResolveDate resolves v with the default resolver.
func ResolveDate(v any) (time.Time, error) {
	return defaultResolver.Resolve(v)
}

// Resolve returns the calendar date v denotes, at midnight UTC.
// It never panics; failures wrap ErrUnresolvableDate or ErrDateOutOfRange.
//
// Strings go through the ordered rules and then the fallback layouts.
// time.Time values keep their own calendar date. Numbers are spreadsheet
// serial day numbers. Anything else is unresolvable.
func (r DateResolver) Resolve(v any) (time.Time, error) {
	t, _, err := r.Explain(v)
	return t, err
}

// Explain is Resolve that also reports which rule or layout produced the date.
func (r DateResolver) Explain(v any) (time.Time, string, error) {
	switch x := v.(type) {
	case string:
		return r.resolveString(x)
	case time.Time:
		t, err := r.resolveValue(x)
		return t, "time value", err
	default:
		t, err := r.resolveValue(v)
		return t, "serial day number", err
	}
}

func (r DateResolver) resolveValue(v any) (time.Time, error) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, ErrUnresolvableDate
	case time.Time:
		y, m, d := x.Date()
		return r.checkRange(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrUnresolvableDate, x.String())
		}
		return r.resolveSerial(f)
	case float64:
		return r.resolveSerial(x)
	case float32:
		return r.resolveSerial(float64(x))
	case int:
		return r.resolveSerial(float64(x))
	case int64:
		return r.resolveSerial(float64(x))
	case int32:
		return r.resolveSerial(float64(x))
	default:
		return time.Time{}, fmt.Errorf("%w: unsupported value of type %T", ErrUnresolvableDate, v)
	}
}

func (r DateResolver) resolveString(s string) (time.Time, string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, "", ErrUnresolvableDate
	}

	for _, rule := range dateRules {
		m := rule.pattern.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		year, month, day, ok := rule.interpret(m)
		if !ok {
			continue
		}
		t, ok := civilDate(year, month, day)
		if !ok {
			continue
		}
		t, err := r.checkRange(t)
		return t, rule.name, err
	}

	for _, layout := range fallbackLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		y, m, d := t.Date()
		t, err = r.checkRange(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
		return t, "layout " + layout, err
	}

	return time.Time{}, "", fmt.Errorf("%w: %q", ErrUnresolvableDate, s)
}

func (r DateResolver) resolveSerial(f float64) (time.Time, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 1 {
		return time.Time{}, fmt.Errorf("%w: serial %v", ErrUnresolvableDate, f)
	}
	if f > maxSerialDay {
		return time.Time{}, fmt.Errorf("%w: serial %v", ErrDateOutOfRange, f)
	}
	// Fractional part is the time of day; only the date is kept.
	return r.checkRange(spreadsheetEpoch.AddDate(0, 0, int(f)))
}

func (r DateResolver) checkRange(t time.Time) (time.Time, error) {
	now := time.Now
	if r.now != nil {
		now = r.now
	}
	maxYear := now().UTC().Year()

	if y := t.Year(); y < MinDateYear || y > maxYear {
		return time.Time{}, fmt.Errorf("%w: year %d not in [%d, %d]", ErrDateOutOfRange, y, MinDateYear, maxYear)
	}
	return t, nil
}

// civilDate builds midnight UTC for y-m-d, rejecting dates that do not exist
// (month 13, February 30) instead of letting time.Date roll them over.
func civilDate(y, m, d int) (time.Time, bool) {
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || t.Month() != time.Month(m) || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

// FormatDate renders a resolved date as the canonical stored value.
func FormatDate(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// atoi converts a regexp digit group; the patterns guarantee digits only.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
