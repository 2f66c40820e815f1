package upstream

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
	"github.com/jwalitptl/clinic-scheduler/internal/schedule"
	"github.com/jwalitptl/clinic-scheduler/pkg/apiclient"
)

type appointmentRepository struct {
	api API
}

func NewAppointmentRepository(api API) repository.AppointmentRepository {
	return &appointmentRepository{api: api}
}

func listParams(f model.AppointmentFilters) map[string]string {
	params := schedule.RangeParams(f.Range)
	// "scheduled" also covers confirmed, which the API filters exactly;
	// the caller narrows the result locally instead.
	if f.Status != "" && f.Status != model.AppointmentStatusScheduled {
		params["status"] = string(f.Status)
	}
	if f.DoctorID != "" {
		params["doctor_id"] = f.DoctorID
	}
	if f.Limit > 0 {
		params["limit"] = strconv.Itoa(f.Limit)
	}
	if f.Page > 0 {
		params["page"] = strconv.Itoa(f.Page)
	}
	return params
}

func (r *appointmentRepository) List(ctx context.Context, sess *model.Session, f model.AppointmentFilters) ([]model.RawAppointment, int, error) {
	var body apiclient.RawResponse
	if err := r.api.Get(ctx, "/appointments", listParams(f), &body, sessionOpts(sess)...); err != nil {
		return nil, 0, fmt.Errorf("failed to list appointments: %w", err)
	}

	raws := []model.RawAppointment{}
	total, err := decodeList(body, &raws)
	if err != nil {
		return nil, 0, err
	}
	if total < 0 {
		total = len(raws)
	}
	return raws, total, nil
}

func (r *appointmentRepository) Get(ctx context.Context, sess *model.Session, id string) (*model.RawAppointment, error) {
	var raw model.RawAppointment
	if err := r.api.Get(ctx, "/appointments/"+id, nil, &raw, sessionOpts(sess)...); err != nil {
		return nil, translate(err)
	}
	return &raw, nil
}

type createBody struct {
	PatientID string `json:"patient_id"`
	DoctorID  string `json:"doctor_id"`
	NurseID   string `json:"nurse_id,omitempty"`
	ServiceID string `json:"service_id,omitempty"`
	StartTime string `json:"start_time"`
	Date      string `json:"date"`
	Duration  int    `json:"duration"`
	Status    string `json:"status"`
	Type      string `json:"type,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

func (r *appointmentRepository) Create(ctx context.Context, sess *model.Session, apt model.NewAppointment) (*model.RawAppointment, error) {
	body := createBody{
		PatientID: apt.PatientID,
		DoctorID:  apt.DoctorID,
		NurseID:   apt.NurseID,
		ServiceID: apt.ServiceID,
		StartTime: apt.StartTime.Format(time.RFC3339),
		Date:      apt.StartTime.Format(time.RFC3339),
		Duration:  apt.Duration,
		Status:    string(apt.Status),
		Type:      string(apt.Type),
		Notes:     apt.Notes,
	}

	var raw model.RawAppointment
	if err := r.api.Post(ctx, "/appointments", body, &raw, sessionOpts(sess)...); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}
	return &raw, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, sess *model.Session, id string, status model.AppointmentStatus) (*model.RawAppointment, error) {
	var raw model.RawAppointment
	body := map[string]string{"status": string(status)}
	if err := r.api.Patch(ctx, "/appointments/"+id, body, &raw, sessionOpts(sess)...); err != nil {
		return nil, translate(err)
	}
	if raw.ID == "" {
		raw.ID = id
	}
	if raw.Status == "" {
		raw.Status = status
	}
	return &raw, nil
}

// FindConflicts loads the doctor's appointments that start before end and
// checks overlap locally; the API has no conflict endpoint.
func (r *appointmentRepository) FindConflicts(ctx context.Context, sess *model.Session, doctorID string, start, end time.Time) ([]model.RawAppointment, error) {
	// A long appointment from the previous day could still overlap.
	window := model.DateRange{Start: schedule.StartOfDay(start).Add(-12 * time.Hour), End: end}

	raws, _, err := r.List(ctx, sess, model.AppointmentFilters{
		DoctorID:   doctorID,
		Range:      window,
		Pagination: model.Pagination{Page: 1, Limit: 500},
	})
	if err != nil {
		return nil, err
	}

	var conflicts []model.RawAppointment
	for _, raw := range raws {
		if raw.Doctor.ID != doctorID {
			continue
		}
		if raw.Status == model.AppointmentStatusCancelled || raw.Status == model.AppointmentStatusNoShow {
			continue
		}
		apt := schedule.Normalize(raw)
		if repository.Overlaps(apt.StartTime, apt.EndTime, start, end) {
			conflicts = append(conflicts, raw)
		}
	}
	return conflicts, nil
}
