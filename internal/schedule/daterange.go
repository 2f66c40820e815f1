// Package schedule holds the appointment scheduling core: date ranges,
// normalization, calendar grids, filtering, stats and the creation gate.
// Everything here is pure; callers pass the current time explicitly.
package schedule

import (
	"time"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
)

// Date filter keys accepted by CalculateRange.
const (
	FilterToday      = "today"
	FilterTomorrow   = "tomorrow"
	FilterThisWeek   = "this-week"
	FilterNextWeek   = "next-week"
	FilterCustomDate = "custom-date"
	FilterAll        = "all"
)

const (
	// DateLayout is the layout of date-only inputs.
	DateLayout = "2006-01-02"
	// QueryTimeLayout serializes range bounds in local time without an offset.
	QueryTimeLayout = "2006-01-02T15:04:05.000"
)

// StartOfDay returns the first instant of t's calendar day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return dayStart(y, m, d, t.Location())
}

// dayStart returns the first instant of the calendar day y-m-d in loc, with
// the date normalized the way time.Date does. In zones where DST begins at
// midnight, 00:00 does not exist and the day starts at the transition.
func dayStart(y int, m time.Month, d int, loc *time.Location) time.Time {
	noon := time.Date(y, m, d, 12, 0, 0, 0, loc)
	y, m, d = noon.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if start.Day() == d {
		return start
	}
	_, before := start.Zone()
	_, after := noon.Zone()
	return start.Add(time.Duration(after-before) * time.Second)
}

// EndOfDay returns 23:59:59.999 of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// DayRange spans the whole calendar day of t.
func DayRange(t time.Time) model.DateRange {
	return model.DateRange{Start: StartOfDay(t), End: EndOfDay(t)}
}

// StartOfWeek returns the start of the Sunday on or before t.
func StartOfWeek(t time.Time) time.Time {
	return addDays(StartOfDay(t), -int(t.Weekday()))
}

// addDays returns the start of the calendar day n days after t's day.
func addDays(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	return dayStart(y, m, d+n, t.Location())
}

// ParseDate parses a YYYY-MM-DD string as the start of that day in loc.
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	y, m, d := t.Date()
	return dayStart(y, m, d, loc), true
}

// CalculateRange resolves a named date filter relative to now. Unknown keys,
// "all" and unusable custom dates yield the zero range.
func CalculateRange(key, customDate string, now time.Time) model.DateRange {
	switch key {
	case FilterToday:
		return DayRange(now)
	case FilterTomorrow:
		return DayRange(addDays(StartOfDay(now), 1))
	case FilterThisWeek:
		start := StartOfWeek(now)
		return model.DateRange{Start: start, End: EndOfDay(addDays(start, 6))}
	case FilterNextWeek:
		start := addDays(StartOfDay(now), 7-int(now.Weekday()))
		return model.DateRange{Start: start, End: EndOfDay(addDays(start, 6))}
	case FilterCustomDate:
		day, ok := ParseDate(customDate, now.Location())
		if !ok {
			return model.DateRange{}
		}
		return DayRange(day)
	default:
		return model.DateRange{}
	}
}

// FormatQueryTime renders t the way range bounds travel in query strings.
func FormatQueryTime(t time.Time) string {
	return t.Format(QueryTimeLayout)
}

// ParseQueryTime parses a bound written by FormatQueryTime, also accepting
// RFC 3339 and plain dates.
func ParseQueryTime(s string, loc *time.Location) (time.Time, bool) {
	if t, err := time.ParseInLocation(QueryTimeLayout, s, loc); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	return ParseDate(s, loc)
}

// RangeParams returns the start_date/end_date query parameters, or an empty
// map for the zero range.
func RangeParams(r model.DateRange) map[string]string {
	if r.IsZero() {
		return map[string]string{}
	}
	return map[string]string{
		"start_date": FormatQueryTime(r.Start),
		"end_date":   FormatQueryTime(r.End),
	}
}
