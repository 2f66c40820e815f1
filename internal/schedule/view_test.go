package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
)

func TestResolveView_CustomDateForcesDay(t *testing.T) {
	loc := mustLoc(t, "America/Chicago")
	now := time.Date(2024, 1, 2, 9, 0, 0, 0, loc)

	v := ResolveView(FilterCustomDate, "2024-03-15", model.ViewMonth, "2024-06-01", now)

	assert.Equal(t, model.ViewDay, v.Mode)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, loc), v.CurrentDate)
	assert.Equal(t, map[string]string{
		"start_date": "2024-03-15T00:00:00.000",
		"end_date":   "2024-03-15T23:59:59.999",
	}, RangeParams(v.Range))
	assert.False(t, v.Empty)
}

func TestResolveView_CustomDateWithoutDate(t *testing.T) {
	now := time.Date(2024, 3, 13, 9, 0, 0, 0, time.UTC)

	v := ResolveView(FilterCustomDate, "", model.ViewWeek, "", now)

	assert.Equal(t, model.ViewWeek, v.Mode)
	assert.Equal(t, "2024-03-10T00:00:00.000", FormatQueryTime(v.Range.Start))
}

func TestResolveView_OverlapWithFilter(t *testing.T) {
	now := time.Date(2024, 3, 13, 9, 0, 0, 0, time.UTC)

	v := ResolveView(FilterToday, "", model.ViewMonth, "", now)
	assert.Equal(t, model.ViewMonth, v.Mode)
	assert.Equal(t, "2024-03-13T00:00:00.000", FormatQueryTime(v.Range.Start))
	assert.Equal(t, "2024-03-13T23:59:59.999", FormatQueryTime(v.Range.End))

	// Looking at April while filtering on today shows nothing.
	v = ResolveView(FilterToday, "", model.ViewWeek, "2024-04-20", now)
	assert.True(t, v.Empty)
}

func TestResolveView_Defaults(t *testing.T) {
	now := time.Date(2024, 3, 13, 9, 0, 0, 0, time.UTC)

	v := ResolveView("", "", model.ViewMode(""), "", now)

	assert.Equal(t, model.ViewMonth, v.Mode)
	assert.Equal(t, StartOfDay(now), v.CurrentDate)
	assert.Equal(t, GridRange(now, model.ViewMonth), v.Range)
}
