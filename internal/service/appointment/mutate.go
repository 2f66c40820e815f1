package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/schedule"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
	"github.com/jwalitptl/clinic-scheduler/pkg/lock"
)

const (
	MsgSlotTaken = "Doctor already has an appointment at this time"
	MsgSlotBusy  = "This time slot is being booked, please try again"
)

// Validate runs the pre-submission gate for the raw form values.
func (s *Service) Validate(sess *model.Session, req model.ValidateAppointmentRequest) schedule.Result {
	res := s.gate(sess).Validate(req.Date, req.Time, s.clock(sess))
	if res.Level != schedule.LevelNone {
		s.metrics.ObserveValidation(string(res.Level))
	}
	return res
}

// Create books a new appointment. The gate must pass, and the doctor must be
// free for the whole duration; the conflict check and the insert run under a
// slot lock.
func (s *Service) Create(ctx context.Context, sess *model.Session, req model.CreateAppointmentRequest) (*model.Appointment, error) {
	res := s.Validate(sess, model.ValidateAppointmentRequest{Date: req.Date, Time: req.Time})
	if res.Valid == nil {
		return nil, apperrors.BadRequest("date and time are required", nil)
	}
	if res.Blocking() {
		return nil, apperrors.BadRequest(res.Message, nil)
	}

	duration := req.Duration
	if duration <= 0 {
		duration = model.DefaultAppointmentDuration
	}
	if duration < MinAppointmentDuration || duration > MaxAppointmentDuration {
		return nil, apperrors.BadRequest(fmt.Sprintf("duration must be between %d and %d minutes", MinAppointmentDuration, MaxAppointmentDuration), nil)
	}
	aptType := req.Type
	if aptType == "" {
		aptType = model.AppointmentTypeConsultation
	}

	start := res.At
	end := schedule.EndTime(start, duration)

	var created *model.RawAppointment
	err := s.locker.WithLock(ctx, lock.SlotKey(sess.ClinicID, req.DoctorID, start), func(ctx context.Context) error {
		conflicts, err := s.appointments.FindConflicts(ctx, sess, req.DoctorID, start, end)
		if err != nil {
			return translate(err, "appointments")
		}
		if len(conflicts) > 0 {
			return apperrors.Conflict(MsgSlotTaken, nil)
		}

		created, err = s.appointments.Create(ctx, sess, model.NewAppointment{
			ClinicID:  sess.ClinicID,
			PatientID: req.PatientID,
			DoctorID:  req.DoctorID,
			NurseID:   req.NurseID,
			ServiceID: req.ServiceID,
			StartTime: start,
			Duration:  duration,
			Status:    model.AppointmentStatusScheduled,
			Type:      aptType,
			Notes:     req.Notes,
		})
		return translate(err, "appointment")
	})
	if errors.Is(err, lock.ErrLockNotAcquired) {
		return nil, apperrors.Conflict(MsgSlotBusy, err)
	}
	if err != nil {
		return nil, err
	}

	apt := schedule.Normalize(*created)
	if apt.StartTime.IsZero() {
		apt.StartTime, apt.EndTime = start, end
	}
	s.publish(ctx, sess, model.AppointmentEvent{
		Type:          model.AppointmentEventCreated,
		AppointmentID: apt.ID,
		Status:        apt.Status,
		StartTime:     apt.StartTime,
		Patient:       apt.Patient,
		Doctor:        apt.Doctor,
	})
	s.log.Info("appointment created", "appointment_id", apt.ID, "clinic_id", sess.ClinicID, "doctor_id", req.DoctorID)
	return &apt, nil
}

// UpdateStatus moves an appointment to a new status. Appointments are never
// deleted; cancellation is a status change.
func (s *Service) UpdateStatus(ctx context.Context, sess *model.Session, id string, req model.UpdateStatusRequest) (*model.Appointment, error) {
	if !req.Status.Valid() {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid status %q", req.Status), nil)
	}

	current, err := s.appointments.Get(ctx, sess, id)
	if err != nil {
		return nil, translate(err, "appointment")
	}
	from := current.Status
	if from == "" {
		from = model.AppointmentStatusScheduled
	}
	if !from.CanTransition(req.Status) {
		err := apperrors.Conflict(fmt.Sprintf("cannot change appointment status from %s to %s", from, req.Status), nil)
		s.metrics.ObserveTransition(string(req.Status), err)
		return nil, err
	}

	updated, err := s.appointments.UpdateStatus(ctx, sess, id, req.Status)
	s.metrics.ObserveTransition(string(req.Status), err)
	if err != nil {
		return nil, translate(err, "appointment")
	}

	apt := schedule.Normalize(*updated)
	s.publish(ctx, sess, model.AppointmentEvent{
		Type:          model.AppointmentEventStatusChanged,
		AppointmentID: id,
		Status:        req.Status,
		PreviousState: from,
		StartTime:     apt.StartTime,
		Patient:       apt.Patient,
		Doctor:        apt.Doctor,
		Reason:        req.Reason,
	})
	return &apt, nil
}

func (s *Service) Complete(ctx context.Context, sess *model.Session, id string) (*model.Appointment, error) {
	return s.UpdateStatus(ctx, sess, id, model.UpdateStatusRequest{Status: model.AppointmentStatusCompleted})
}

func (s *Service) Cancel(ctx context.Context, sess *model.Session, id, reason string) (*model.Appointment, error) {
	return s.UpdateStatus(ctx, sess, id, model.UpdateStatusRequest{Status: model.AppointmentStatusCancelled, Reason: reason})
}

// publish announces a mutation. This instance drops its cached queries right
// away; other instances follow the broker event. Publish failures are logged
// and the mutation stands.
func (s *Service) publish(ctx context.Context, sess *model.Session, evt model.AppointmentEvent) {
	evt.ClinicID = sess.ClinicID
	evt.OccurredAt = s.now()

	if s.queries != nil {
		s.queries.Invalidate(sess.ClinicID)
	}
	if s.broker == nil {
		return
	}
	err := s.broker.Publish(ctx, model.AppointmentEventsChannel, evt)
	s.metrics.ObservePublish(string(evt.Type), err)
	if err != nil {
		s.log.Error(err, "failed to publish appointment event", "type", evt.Type, "appointment_id", evt.AppointmentID)
	}
}
