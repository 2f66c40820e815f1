package schedule

import "github.com/jwalitptl/clinic-scheduler/internal/model"

// Normalize collapses the id-or-object references of a raw appointment into
// flat ids plus optional display data. It never fails: absent references
// produce an empty id and a nil display.
func Normalize(raw model.RawAppointment) model.Appointment {
	duration := raw.Duration
	if duration <= 0 {
		duration = model.DefaultAppointmentDuration
	}

	status := raw.Status
	if status == "" {
		status = model.AppointmentStatusScheduled
	}

	apt := model.Appointment{
		ID:        raw.ID,
		ClinicID:  raw.ClinicID,
		PatientID: raw.Patient.ID,
		DoctorID:  raw.Doctor.ID,
		NurseID:   raw.Nurse.ID,
		ServiceID: raw.Service.ID,
		Patient:   display(raw.Patient),
		Doctor:    display(raw.Doctor),
		Nurse:     display(raw.Nurse),
		Service:   display(raw.Service),
		StartTime: raw.StartTime,
		Duration:  duration,
		Status:    status,
		Type:      raw.Type,
		Notes:     raw.Notes,
		CreatedAt: raw.CreatedAt,
		UpdatedAt: raw.UpdatedAt,
	}
	if !apt.StartTime.IsZero() {
		apt.EndTime = EndTime(apt.StartTime, duration)
	}
	return apt
}

// NormalizeAll normalizes a batch, preserving order.
func NormalizeAll(raws []model.RawAppointment) []model.Appointment {
	out := make([]model.Appointment, 0, len(raws))
	for _, r := range raws {
		out = append(out, Normalize(r))
	}
	return out
}

func display(ref model.Reference) *model.DisplayInfo {
	if ref.Display == nil {
		return nil
	}
	d := *ref.Display
	return &d
}
