package model

import "time"

type ViewMode string

const (
	ViewMonth ViewMode = "month"
	ViewWeek  ViewMode = "week"
	ViewDay   ViewMode = "day"
)

func (v ViewMode) Valid() bool {
	return v == ViewMonth || v == ViewWeek || v == ViewDay
}

// CalendarEvent is the view projection of an appointment. It is rebuilt on
// every request and never persisted.
type CalendarEvent struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	StartTime     time.Time         `json:"start_time"`
	EndTime       time.Time         `json:"end_time"`
	Status        AppointmentStatus `json:"status"`
	Color         string            `json:"color"`
	Badge         string            `json:"badge"`
	PatientID     string            `json:"patient_id,omitempty"`
	DoctorID      string            `json:"doctor_id,omitempty"`
	DoctorName    string            `json:"doctor_name,omitempty"`
	AppointmentID string            `json:"appointment_id"`
}

// CalendarCell is one day (month/week view) or one hour (day view).
type CalendarCell struct {
	Start          time.Time       `json:"start"`
	End            time.Time       `json:"end"`
	InCurrentMonth bool            `json:"in_current_month"`
	IsToday        bool            `json:"is_today"`
	Events         []CalendarEvent `json:"events"`
}

// CalendarGrid is the payload of the calendar endpoint.
type CalendarGrid struct {
	View        ViewMode       `json:"view"`
	CurrentDate time.Time      `json:"current_date"`
	Previous    time.Time      `json:"previous"`
	Next        time.Time      `json:"next"`
	Range       DateRange      `json:"range"`
	Cells       []CalendarCell `json:"cells"`
	Stats       Stats          `json:"stats"`
}

// CalendarQuery extends the list query with view selection.
type CalendarQuery struct {
	AppointmentQuery
	View        string `form:"view" binding:"omitempty,oneof=month week day"`
	CurrentDate string `form:"current_date"`
}
