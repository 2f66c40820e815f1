package schedule

import (
	"strings"
	"time"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
)

// MatchesStatus applies the status filter. "scheduled" deliberately also
// matches "confirmed": both are shown in one bucket.
func MatchesStatus(s model.AppointmentStatus, filter string) bool {
	switch filter {
	case "", model.StatusAll:
		return true
	case string(model.AppointmentStatusScheduled):
		return s == model.AppointmentStatusScheduled || s == model.AppointmentStatusConfirmed
	default:
		return string(s) == filter
	}
}

// MatchesSearch does a case-insensitive substring match over patient name,
// doctor name and notes.
func MatchesSearch(a model.Appointment, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, field := range []string{a.PatientName(), a.DoctorName(), a.Notes} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// Filter returns the appointments matching both the search term and the
// status filter, in input order.
func Filter(appts []model.Appointment, search, status string) []model.Appointment {
	out := make([]model.Appointment, 0, len(appts))
	for _, a := range appts {
		if MatchesStatus(a.Status, status) && MatchesSearch(a, search) {
			out = append(out, a)
		}
	}
	return out
}

// ComputeStats counts the dashboard tiles over an already filtered list.
func ComputeStats(appts []model.Appointment, now time.Time) model.Stats {
	stats := model.Stats{Total: len(appts)}
	for _, a := range appts {
		if !a.StartTime.IsZero() && SameDay(now, a.StartTime) {
			stats.Today++
		}
		switch a.Status {
		case model.AppointmentStatusCompleted:
			stats.Completed++
		case model.AppointmentStatusScheduled, model.AppointmentStatusConfirmed:
			stats.Scheduled++
		case model.AppointmentStatusCancelled, model.AppointmentStatusNoShow:
			stats.Cancelled++
		}
	}
	return stats
}

// ValidStatusFilter reports whether a status filter value is understood.
func ValidStatusFilter(filter string) bool {
	return filter == "" || filter == model.StatusAll || model.AppointmentStatus(filter).Valid()
}
