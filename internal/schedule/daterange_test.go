package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestCalculateRange_Today(t *testing.T) {
	for _, name := range []string{"UTC", "America/New_York", "Asia/Kolkata"} {
		loc := mustLoc(t, name)
		now := time.Date(2024, 3, 13, 16, 45, 0, 0, loc)

		r := CalculateRange(FilterToday, "", now)

		assert.True(t, r.Start.Before(r.End), name)
		assert.True(t, SameDay(now, r.Start), name)
		assert.True(t, SameDay(now, r.End), name)
		assert.Equal(t, "2024-03-13T00:00:00.000", FormatQueryTime(r.Start))
		assert.Equal(t, "2024-03-13T23:59:59.999", FormatQueryTime(r.End))
	}
}

func TestCalculateRange_Keys(t *testing.T) {
	// Wednesday
	now := time.Date(2024, 3, 13, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		key   string
		start string
		end   string
	}{
		{FilterTomorrow, "2024-03-14T00:00:00.000", "2024-03-14T23:59:59.999"},
		{FilterThisWeek, "2024-03-10T00:00:00.000", "2024-03-16T23:59:59.999"},
		{FilterNextWeek, "2024-03-17T00:00:00.000", "2024-03-23T23:59:59.999"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			r := CalculateRange(tt.key, "", now)
			assert.Equal(t, tt.start, FormatQueryTime(r.Start))
			assert.Equal(t, tt.end, FormatQueryTime(r.End))
		})
	}
}

func TestCalculateRange_NextWeekFromSunday(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	r := CalculateRange(FilterNextWeek, "", now)
	assert.Equal(t, "2024-03-17T00:00:00.000", FormatQueryTime(r.Start))
}

func TestCalculateRange_CustomDate(t *testing.T) {
	now := time.Date(2024, 1, 2, 9, 0, 0, 0, mustLoc(t, "Europe/Berlin"))

	params := RangeParams(CalculateRange(FilterCustomDate, "2024-03-15", now))

	assert.Equal(t, map[string]string{
		"start_date": "2024-03-15T00:00:00.000",
		"end_date":   "2024-03-15T23:59:59.999",
	}, params)
}

func TestCalculateRange_EmptyRanges(t *testing.T) {
	now := time.Now()

	assert.True(t, CalculateRange(FilterAll, "", now).IsZero())
	assert.True(t, CalculateRange("last-decade", "", now).IsZero())
	assert.True(t, CalculateRange(FilterCustomDate, "", now).IsZero())
	assert.True(t, CalculateRange(FilterCustomDate, "15/03/2024", now).IsZero())
	assert.Empty(t, RangeParams(CalculateRange(FilterAll, "", now)))
}

func TestCalculateRange_DSTWeek(t *testing.T) {
	loc := mustLoc(t, "America/New_York")
	// DST starts on Sunday 2024-03-10.
	now := time.Date(2024, 3, 12, 12, 0, 0, 0, loc)

	r := CalculateRange(FilterThisWeek, "", now)

	assert.Equal(t, 0, r.Start.Hour())
	assert.Equal(t, time.Sunday, r.Start.Weekday())
	assert.Equal(t, time.Saturday, r.End.Weekday())
}

func TestParseQueryTime(t *testing.T) {
	loc := mustLoc(t, "Asia/Kolkata")

	got, ok := ParseQueryTime("2024-03-15T10:30:00.000", loc)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 15, 10, 30, 0, 0, loc), got)

	got, ok = ParseQueryTime("2024-03-15T10:30:00Z", loc)
	require.True(t, ok)
	assert.True(t, got.Equal(time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)))

	_, ok = ParseQueryTime("yesterday", loc)
	assert.False(t, ok)
}

func TestCalculateRange_MidnightDSTGap(t *testing.T) {
	loc := mustLoc(t, "America/Santiago")
	now := time.Date(2024, 9, 8, 12, 0, 0, 0, loc)

	today := CalculateRange(FilterToday, "", now)
	assert.True(t, SameDay(today.Start, now))
	assert.Equal(t, 1, today.Start.Hour())
	assert.True(t, today.Start.Add(-time.Nanosecond).Day() == 7)
	assert.True(t, SameDay(today.End, now))

	week := CalculateRange(FilterThisWeek, "", now)
	assert.Equal(t, "2024-09-08", week.Start.Format(DateLayout))
	assert.Equal(t, "2024-09-14", week.End.Format(DateLayout))

	yesterday := time.Date(2024, 9, 7, 18, 0, 0, 0, loc)
	tomorrow := CalculateRange(FilterTomorrow, "", yesterday)
	assert.Equal(t, "2024-09-08", tomorrow.Start.Format(DateLayout))
	assert.True(t, tomorrow.Start.Equal(today.Start))

	custom := CalculateRange(FilterCustomDate, "2024-09-08", now)
	assert.True(t, custom.Start.Equal(today.Start))

	parsed, ok := ParseQueryTime("2024-09-08", loc)
	require.True(t, ok)
	assert.True(t, parsed.Equal(today.Start))
}
