package schedule

import (
	"time"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
)

// View is a resolved calendar request: which grid to draw, around which
// date, and which range of appointments to load for it.
type View struct {
	Mode        model.ViewMode
	CurrentDate time.Time
	Range       model.DateRange
	// Empty is set when the date filter and the grid do not overlap.
	Empty bool
}

// ResolveView reconciles the list filter with the calendar controls. A
// custom-date filter pins the calendar to the day view of that date; any
// other filter keeps the requested view, and the fetch range is the overlap of
// the filter range and the visible grid.
func ResolveView(dateFilter, selectedDate string, mode model.ViewMode, requestedDate string, now time.Time) View {
	loc := now.Location()

	if dateFilter == FilterCustomDate {
		if day, ok := ParseDate(selectedDate, loc); ok {
			return View{Mode: model.ViewDay, CurrentDate: day, Range: DayRange(day)}
		}
	}

	if !mode.Valid() {
		mode = model.ViewMonth
	}
	current := StartOfDay(now)
	if day, ok := ParseDate(requestedDate, loc); ok {
		current = day
	}

	grid := GridRange(current, mode)
	filter := CalculateRange(dateFilter, selectedDate, now)
	if filter.IsZero() {
		return View{Mode: mode, CurrentDate: current, Range: grid}
	}

	r := model.DateRange{Start: grid.Start, End: grid.End}
	if filter.Start.After(r.Start) {
		r.Start = filter.Start
	}
	if filter.End.Before(r.End) {
		r.End = filter.End
	}
	if r.Start.After(r.End) {
		return View{Mode: mode, CurrentDate: current, Range: grid, Empty: true}
	}
	return View{Mode: mode, CurrentDate: current, Range: r}
}
