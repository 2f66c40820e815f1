package model

import (
	"bytes"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusNoShow    AppointmentStatus = "no-show"
)

// StatusAll is the filter value that disables status filtering.
const StatusAll = "all"

var appointmentStatuses = []AppointmentStatus{
	AppointmentStatusScheduled,
	AppointmentStatusConfirmed,
	AppointmentStatusCompleted,
	AppointmentStatusCancelled,
	AppointmentStatusNoShow,
}

func (s AppointmentStatus) Valid() bool {
	for _, v := range appointmentStatuses {
		if v == s {
			return true
		}
	}
	return false
}

type AppointmentType string

const (
	AppointmentTypeConsultation AppointmentType = "consultation"
	AppointmentTypeFollowUp     AppointmentType = "follow-up"
	AppointmentTypeEmergency    AppointmentType = "emergency"
	AppointmentTypeCheckup      AppointmentType = "checkup"
	AppointmentTypeProcedure    AppointmentType = "procedure"
)

func (t AppointmentType) Valid() bool {
	switch t {
	case AppointmentTypeConsultation, AppointmentTypeFollowUp, AppointmentTypeEmergency,
		AppointmentTypeCheckup, AppointmentTypeProcedure:
		return true
	}
	return false
}

// DefaultAppointmentDuration is used when a record carries no duration.
const DefaultAppointmentDuration = 30

// RawAppointment is an appointment as the data source returns it, with
// references that may or may not be populated.
type RawAppointment struct {
	ID        string            `json:"id"`
	ClinicID  string            `json:"clinic_id,omitempty"`
	Patient   Reference         `json:"patient"`
	Doctor    Reference         `json:"doctor"`
	Nurse     Reference         `json:"nurse"`
	Service   Reference         `json:"service"`
	StartTime time.Time         `json:"start_time"`
	Duration  int               `json:"duration"`
	Status    AppointmentStatus `json:"status"`
	Type      AppointmentType   `json:"type"`
	Notes     string            `json:"notes"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// upstreamTimeLayouts are the timestamp shapes upstream records carry.
var upstreamTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// looseTime decodes any of upstreamTimeLayouts. Values without an offset are
// read as UTC.
type looseTime struct {
	time.Time
}

func (t *looseTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	for _, layout := range upstreamTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized time %q", s)
}

// UnmarshalJSON tolerates the alternative key names and time formats the
// upstream API uses.
func (a *RawAppointment) UnmarshalJSON(data []byte) error {
	type plain RawAppointment
	var aux struct {
		plain
		StartTime looseTime `json:"start_time"`
		MongoID   string    `json:"_id"`
		Date      looseTime `json:"date"`
		PatientID Reference `json:"patient_id"`
		DoctorID  Reference `json:"doctor_id"`
		NurseID   Reference `json:"nurse_id"`
		ServiceID Reference `json:"service_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*a = RawAppointment(aux.plain)
	a.StartTime = aux.StartTime.Time
	if a.ID == "" {
		a.ID = aux.MongoID
	}
	if a.StartTime.IsZero() {
		a.StartTime = aux.Date.Time
	}
	if a.Patient.IsZero() {
		a.Patient = aux.PatientID
	}
	if a.Doctor.IsZero() {
		a.Doctor = aux.DoctorID
	}
	if a.Nurse.IsZero() {
		a.Nurse = aux.NurseID
	}
	if a.Service.IsZero() {
		a.Service = aux.ServiceID
	}
	return nil
}

// Appointment is the flat, normalized shape used by the filter, stats and
// calendar code. Display fields are nil when the source only sent an id.
type Appointment struct {
	ID        string            `json:"id"`
	ClinicID  string            `json:"clinic_id,omitempty"`
	PatientID string            `json:"patient_id"`
	DoctorID  string            `json:"doctor_id"`
	NurseID   string            `json:"nurse_id"`
	ServiceID string            `json:"service_id"`
	Patient   *DisplayInfo      `json:"patient"`
	Doctor    *DisplayInfo      `json:"doctor"`
	Nurse     *DisplayInfo      `json:"nurse"`
	Service   *DisplayInfo      `json:"service"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time"`
	Duration  int               `json:"duration"`
	Status    AppointmentStatus `json:"status"`
	Type      AppointmentType   `json:"type"`
	Notes     string            `json:"notes"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// PatientName returns the patient display name or "".
func (a Appointment) PatientName() string {
	if a.Patient == nil {
		return ""
	}
	return a.Patient.Name
}

// DoctorName returns the doctor display name or "".
func (a Appointment) DoctorName() string {
	if a.Doctor == nil {
		return ""
	}
	return a.Doctor.Name
}

// DateRange bounds an appointment query. The zero value means no bounds.
type DateRange struct {
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
}

func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Contains reports whether t falls inside the inclusive range.
func (r DateRange) Contains(t time.Time) bool {
	if r.IsZero() {
		return true
	}
	return !t.Before(r.Start) && !t.After(r.End)
}

// AppointmentFilters is what the repositories accept.
type AppointmentFilters struct {
	ClinicID string
	DoctorID string
	Range    DateRange
	Status   AppointmentStatus
	// Search is a case-insensitive substring over patient name, doctor name
	// and notes. Stores that cannot search ignore it.
	Search string
	Pagination
}

// AppointmentQuery is the query string of the list and calendar endpoints.
type AppointmentQuery struct {
	DateFilter string `form:"date_filter"`
	Date       string `form:"date"`
	Status     string `form:"status" binding:"omitempty,status_filter"`
	Search     string `form:"search" binding:"max=200"`
	Pagination
}

type CreateAppointmentRequest struct {
	PatientID string          `json:"patient_id" binding:"required"`
	DoctorID  string          `json:"doctor_id" binding:"required"`
	NurseID   string          `json:"nurse_id"`
	ServiceID string          `json:"service_id"`
	Date      string          `json:"date" binding:"required"`
	Time      string          `json:"time" binding:"required"`
	Duration  int             `json:"duration" binding:"omitempty,min=5,max=480"`
	Type      AppointmentType `json:"type" binding:"omitempty,appointment_type"`
	Notes     string          `json:"notes" binding:"max=1000"`
}

// ValidateAppointmentRequest carries the raw form values for the pre-submission gate.
type ValidateAppointmentRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type UpdateStatusRequest struct {
	Status AppointmentStatus `json:"status" binding:"required,appointment_status"`
	Reason string            `json:"reason" binding:"max=500"`
}

// NewAppointment is what gets persisted on creation.
type NewAppointment struct {
	ClinicID  string
	PatientID string
	DoctorID  string
	NurseID   string
	ServiceID string
	StartTime time.Time
	Duration  int
	Status    AppointmentStatus
	Type      AppointmentType
	Notes     string
}

// AppointmentList is a page of normalized appointments.
type AppointmentList struct {
	Appointments []Appointment `json:"appointments"`
	Stats        Stats         `json:"stats"`
	Range        *DateRange    `json:"range,omitempty"`
	Pagination   PageInfo      `json:"pagination"`
}

// Stats are the dashboard tile counts.
type Stats struct {
	Total     int `json:"total"`
	Today     int `json:"today"`
	Completed int `json:"completed"`
	Scheduled int `json:"scheduled"`
	Cancelled int `json:"cancelled"`
}

// AppointmentEventsChannel is the broker channel appointment events travel on.
const AppointmentEventsChannel = "appointment_events"

// AppointmentEventType names broker events.
type AppointmentEventType string

const (
	AppointmentEventCreated       AppointmentEventType = "appointment.created"
	AppointmentEventStatusChanged AppointmentEventType = "appointment.status_changed"
)

// AppointmentEvent is published after every mutation.
type AppointmentEvent struct {
	Type          AppointmentEventType `json:"type"`
	ClinicID      string               `json:"clinic_id"`
	AppointmentID string               `json:"appointment_id"`
	Status        AppointmentStatus    `json:"status"`
	PreviousState AppointmentStatus    `json:"previous_status,omitempty"`
	StartTime     time.Time            `json:"start_time"`
	Patient       *DisplayInfo         `json:"patient,omitempty"`
	Doctor        *DisplayInfo         `json:"doctor,omitempty"`
	Reason        string               `json:"reason,omitempty"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

// CanTransition reports whether an appointment may move from s to next.
// Nothing moves back to scheduled, and completed is final.
func (s AppointmentStatus) CanTransition(next AppointmentStatus) bool {
	switch next {
	case AppointmentStatusConfirmed:
		return s == AppointmentStatusScheduled
	case AppointmentStatusCompleted, AppointmentStatusNoShow:
		return s == AppointmentStatusScheduled || s == AppointmentStatusConfirmed
	case AppointmentStatusCancelled:
		return s != AppointmentStatusCompleted && s != AppointmentStatusCancelled
	default:
		return false
	}
}
