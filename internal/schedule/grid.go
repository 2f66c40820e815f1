package schedule

import (
	"time"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
)

const (
	// MonthGridCells is six full weeks.
	MonthGridCells = 42
	daysPerWeek    = 7
	hoursPerDay    = 24
)

// SameDay compares calendar dates in a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// MonthCells returns the 42 days shown for current's month: the tail of the
// previous month, the whole month, and the head of the next.
func MonthCells(current time.Time) []time.Time {
	y, m, _ := current.Date()
	first := dayStart(y, m, 1, current.Location())
	start := addDays(first, -int(first.Weekday()))

	cells := make([]time.Time, MonthGridCells)
	for i := range cells {
		cells[i] = addDays(start, i)
	}
	return cells
}

// MonthOffset is the number of leading days from the previous month.
func MonthOffset(current time.Time) int {
	y, m, _ := current.Date()
	return int(dayStart(y, m, 1, current.Location()).Weekday())
}

// WeekCells returns the seven days starting on the Sunday on or before current.
func WeekCells(current time.Time) []time.Time {
	start := StartOfWeek(current)
	cells := make([]time.Time, daysPerWeek)
	for i := range cells {
		cells[i] = addDays(start, i)
	}
	return cells
}

// DaySlots returns the 24 hourly slot starts of current's day. An hour that
// a DST gap removes starts where the next existing hour does.
func DaySlots(current time.Time) []time.Time {
	y, m, d := current.Date()
	loc := current.Location()
	first := dayStart(y, m, d, loc)
	slots := make([]time.Time, hoursPerDay)
	for h := range slots {
		slot := time.Date(y, m, d, h, 0, 0, 0, loc)
		if slot.Before(first) {
			slot = first
		}
		slots[h] = slot
	}
	return slots
}

// SlotEnd is where slot i of DaySlots ends: the next slot, or the start of
// the following day for the last one.
func SlotEnd(slots []time.Time, i int) time.Time {
	if i+1 < len(slots) {
		return slots[i+1]
	}
	return addDays(slots[i], 1)
}

// InSlot reports whether t falls in [start, end).
func InSlot(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

// EventsOnDay returns the events starting on day's calendar date.
func EventsOnDay(events []model.CalendarEvent, day time.Time) []model.CalendarEvent {
	out := make([]model.CalendarEvent, 0)
	for _, e := range events {
		if SameDay(day, e.StartTime) {
			out = append(out, e)
		}
	}
	return out
}

// EventsInSlot returns the events starting within [start, end).
func EventsInSlot(events []model.CalendarEvent, start, end time.Time) []model.CalendarEvent {
	out := make([]model.CalendarEvent, 0)
	for _, e := range events {
		if InSlot(e.StartTime, start, end) {
			out = append(out, e)
		}
	}
	return out
}

// Cells returns the raw cell starts for a view mode. Unknown modes fall back
// to the month view.
func Cells(current time.Time, mode model.ViewMode) []time.Time {
	switch mode {
	case model.ViewWeek:
		return WeekCells(current)
	case model.ViewDay:
		return DaySlots(current)
	default:
		return MonthCells(current)
	}
}

// GridRange is the span of time a view displays, used to fetch its data.
func GridRange(current time.Time, mode model.ViewMode) model.DateRange {
	cells := Cells(current, mode)
	if mode == model.ViewDay {
		return DayRange(current)
	}
	return model.DateRange{Start: cells[0], End: EndOfDay(cells[len(cells)-1])}
}

// Navigate moves current by one unit of the view: a month, a week or a day.
// The day of month is clamped so Jan 31 + 1 month lands on Feb 28/29.
func Navigate(current time.Time, mode model.ViewMode, step int) time.Time {
	y, m, d := current.Date()
	switch mode {
	case model.ViewWeek:
		return onDay(y, m, d+daysPerWeek*step, current)
	case model.ViewDay:
		return onDay(y, m, d+step, current)
	default:
		target := time.Date(y, m+time.Month(step), 1, 12, 0, 0, 0, current.Location())
		if last := daysIn(target); d > last {
			d = last
		}
		return onDay(target.Year(), target.Month(), d, current)
	}
}

// onDay places clock's wall time on the calendar day y-m-d. Day starts stay
// day starts, and a wall time lost to a DST gap at midnight becomes the
// start of the day.
func onDay(y int, m time.Month, d int, clock time.Time) time.Time {
	loc := clock.Location()
	start := dayStart(y, m, d, loc)
	if clock.Equal(StartOfDay(clock)) {
		return start
	}
	ny, nm, nd := start.Date()
	t := time.Date(ny, nm, nd, clock.Hour(), clock.Minute(), clock.Second(), clock.Nanosecond(), loc)
	if t.Before(start) {
		return start
	}
	return t
}

func daysIn(t time.Time) int {
	y, m, _ := t.Date()
	return time.Date(y, m+1, 0, 12, 0, 0, 0, t.Location()).Day()
}

// BuildGrid lays events into the cells of the requested view. Events are
// placed by start time only and never span cells.
func BuildGrid(current time.Time, mode model.ViewMode, events []model.CalendarEvent, now time.Time) model.CalendarGrid {
	if !mode.Valid() {
		mode = model.ViewMonth
	}

	starts := Cells(current, mode)
	cells := make([]model.CalendarCell, len(starts))
	for i, start := range starts {
		cell := model.CalendarCell{Start: start}
		if mode == model.ViewDay {
			cell.End = SlotEnd(starts, i)
			cell.InCurrentMonth = true
			cell.IsToday = SameDay(start, now)
			cell.Events = EventsInSlot(events, start, cell.End)
		} else {
			cell.End = EndOfDay(start)
			cell.InCurrentMonth = start.Month() == current.Month() && start.Year() == current.Year()
			cell.IsToday = SameDay(start, now)
			cell.Events = EventsOnDay(events, start)
		}
		cells[i] = cell
	}

	return model.CalendarGrid{
		View:        mode,
		CurrentDate: current,
		Previous:    Navigate(current, mode, -1),
		Next:        Navigate(current, mode, 1),
		Range:       GridRange(current, mode),
		Cells:       cells,
	}
}
