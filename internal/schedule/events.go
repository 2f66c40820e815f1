package schedule

import (
	"sort"
	"time"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
)

// DefaultEventTitle is shown when the patient was not populated.
const DefaultEventTitle = "Appointment"

type statusStyle struct {
	color string
	badge string
}

var statusStyles = map[model.AppointmentStatus]statusStyle{
	model.AppointmentStatusScheduled: {color: "#3b82f6", badge: "primary"},
	model.AppointmentStatusConfirmed: {color: "#10b981", badge: "success"},
	model.AppointmentStatusCompleted: {color: "#6b7280", badge: "secondary"},
	model.AppointmentStatusCancelled: {color: "#ef4444", badge: "danger"},
	model.AppointmentStatusNoShow:    {color: "#f59e0b", badge: "warning"},
}

var unknownStyle = statusStyle{color: "#9ca3af", badge: "light"}

// StatusColor maps a status to its calendar color.
func StatusColor(s model.AppointmentStatus) string {
	if st, ok := statusStyles[s]; ok {
		return st.color
	}
	return unknownStyle.color
}

// StatusBadge maps a status to its badge variant.
func StatusBadge(s model.AppointmentStatus) string {
	if st, ok := statusStyles[s]; ok {
		return st.badge
	}
	return unknownStyle.badge
}

// EndTime is start plus duration minutes.
func EndTime(start time.Time, durationMinutes int) time.Time {
	return start.Add(time.Duration(durationMinutes) * time.Minute)
}

// ToEvent projects an appointment onto the calendar.
func ToEvent(a model.Appointment) model.CalendarEvent {
	title := a.PatientName()
	if title == "" {
		title = DefaultEventTitle
	}
	end := a.EndTime
	if end.IsZero() {
		duration := a.Duration
		if duration <= 0 {
			duration = model.DefaultAppointmentDuration
		}
		end = EndTime(a.StartTime, duration)
	}
	return model.CalendarEvent{
		ID:            "event-" + a.ID,
		AppointmentID: a.ID,
		Title:         title,
		StartTime:     a.StartTime,
		EndTime:       end,
		Status:        a.Status,
		Color:         StatusColor(a.Status),
		Badge:         StatusBadge(a.Status),
		PatientID:     a.PatientID,
		DoctorID:      a.DoctorID,
		DoctorName:    a.DoctorName(),
	}
}

// ToEvents projects and sorts by start time. Appointments without a start
// time cannot be placed and are skipped.
func ToEvents(appts []model.Appointment) []model.CalendarEvent {
	events := make([]model.CalendarEvent, 0, len(appts))
	for _, a := range appts {
		if a.StartTime.IsZero() {
			continue
		}
		events = append(events, ToEvent(a))
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartTime.Before(events[j].StartTime)
	})
	return events
}
