package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
)

type appointmentRepository struct {
	db      *sqlx.DB
	metrics *metrics.Metrics
}

func NewAppointmentRepository(db *sqlx.DB, m *metrics.Metrics) repository.AppointmentRepository {
	return &appointmentRepository{db: db, metrics: m}
}

// appointmentRow is one appointment joined with its references.
type appointmentRow struct {
	ID        string    `db:"id"`
	ClinicID  string    `db:"clinic_id"`
	StartTime time.Time `db:"start_time"`
	Duration  int       `db:"duration"`
	Status    string    `db:"status"`
	Type      string    `db:"type"`
	Notes     string    `db:"notes"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	PatientID    sql.NullString `db:"patient_id"`
	PatientName  sql.NullString `db:"patient_name"`
	PatientPhone sql.NullString `db:"patient_phone"`
	PatientEmail sql.NullString `db:"patient_email"`

	DoctorID        sql.NullString `db:"doctor_id"`
	DoctorName      sql.NullString `db:"doctor_name"`
	DoctorPhone     sql.NullString `db:"doctor_phone"`
	DoctorSpecialty sql.NullString `db:"doctor_specialty"`

	NurseID    sql.NullString `db:"nurse_id"`
	NurseName  sql.NullString `db:"nurse_name"`
	NursePhone sql.NullString `db:"nurse_phone"`

	ServiceID   sql.NullString `db:"service_id"`
	ServiceName sql.NullString `db:"service_name"`
}

// ref resolves a joined reference; a dangling id stays unresolved.
func ref(id, name sql.NullString, info model.DisplayInfo) model.Reference {
	if !id.Valid || id.String == "" {
		return model.Reference{}
	}
	if !name.Valid {
		return model.IDRef(id.String)
	}
	info.Name = name.String
	return model.ResolvedRef(id.String, info)
}

func (r appointmentRow) toRaw() model.RawAppointment {
	return model.RawAppointment{
		ID:       r.ID,
		ClinicID: r.ClinicID,
		Patient: ref(r.PatientID, r.PatientName, model.DisplayInfo{
			Phone: r.PatientPhone.String,
			Email: r.PatientEmail.String,
		}),
		Doctor: ref(r.DoctorID, r.DoctorName, model.DisplayInfo{
			Phone:     r.DoctorPhone.String,
			Specialty: r.DoctorSpecialty.String,
		}),
		Nurse:     ref(r.NurseID, r.NurseName, model.DisplayInfo{Phone: r.NursePhone.String}),
		Service:   ref(r.ServiceID, r.ServiceName, model.DisplayInfo{}),
		StartTime: r.StartTime,
		Duration:  r.Duration,
		Status:    model.AppointmentStatus(r.Status),
		Type:      model.AppointmentType(r.Type),
		Notes:     r.Notes,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func toRaws(rows []appointmentRow) []model.RawAppointment {
	out := make([]model.RawAppointment, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toRaw())
	}
	return out
}

func nullable(id string) interface{} {
	if id == "" {
		return nil
	}
	return id
}

const foreignKeyViolation = "23503"

// checkReferences rejects ids that could never match a uuid column.
func checkReferences(apt model.NewAppointment) error {
	for _, f := range []struct{ field, id string }{
		{"patient", apt.PatientID},
		{"doctor", apt.DoctorID},
		{"nurse", apt.NurseID},
		{"service", apt.ServiceID},
	} {
		if f.id == "" {
			continue
		}
		if _, err := uuid.Parse(f.id); err != nil {
			return &repository.ReferenceError{Field: f.field, Err: err}
		}
	}
	return nil
}

// referenceError maps a foreign key violation on appointments to the field
// whose record is missing.
func referenceError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != foreignKeyViolation {
		return nil
	}
	field := strings.TrimSuffix(strings.TrimPrefix(pqErr.Constraint, "appointments_"), "_id_fkey")
	if field == "" || field == pqErr.Constraint {
		field = "reference"
	}
	return &repository.ReferenceError{Field: field, Err: err}
}

func (r *appointmentRepository) List(ctx context.Context, sess *model.Session, f model.AppointmentFilters) (result []model.RawAppointment, total int, err error) {
	start := time.Now()
	defer func() { r.metrics.ObserveDatabase("appointments.list", start, err) }()

	f.ClinicID = sess.ClinicID
	f.Pagination = f.Pagination.Normalize(0)
	page, count, args := buildListQuery(f)

	if err := r.db.GetContext(ctx, &total, count, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count appointments: %w", err)
	}

	var rows []appointmentRow
	pageArgs := append(append([]interface{}{}, args...), f.Limit, f.Offset())
	if err := r.db.SelectContext(ctx, &rows, page, pageArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to list appointments: %w", err)
	}
	return toRaws(rows), total, nil
}

func (r *appointmentRepository) Get(ctx context.Context, sess *model.Session, id string) (*model.RawAppointment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}
	start := time.Now()
	query := "SELECT" + appointmentColumns + appointmentJoins + " WHERE a.id = $1 AND a.clinic_id = $2"

	var row appointmentRow
	err := r.db.GetContext(ctx, &row, query, id, sess.ClinicID)
	r.metrics.ObserveDatabase("appointments.get", start, err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	raw := row.toRaw()
	return &raw, nil
}

func (r *appointmentRepository) Create(ctx context.Context, sess *model.Session, apt model.NewAppointment) (*model.RawAppointment, error) {
	if err := checkReferences(apt); err != nil {
		return nil, err
	}
	start := time.Now()
	query := `
		INSERT INTO appointments (
			id, clinic_id, patient_id, doctor_id, nurse_id, service_id,
			start_time, duration, status, type, notes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
	`
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx, query,
		id,
		sess.ClinicID,
		nullable(apt.PatientID),
		nullable(apt.DoctorID),
		nullable(apt.NurseID),
		nullable(apt.ServiceID),
		apt.StartTime,
		apt.Duration,
		string(apt.Status),
		string(apt.Type),
		apt.Notes,
		time.Now(),
	)
	r.metrics.ObserveDatabase("appointments.create", start, err)
	if refErr := referenceError(err); refErr != nil {
		return nil, refErr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}
	return r.Get(ctx, sess, id)
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, sess *model.Session, id string, status model.AppointmentStatus) (*model.RawAppointment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}
	start := time.Now()
	query := `
		UPDATE appointments
		SET status = $1, updated_at = $2
		WHERE id = $3 AND clinic_id = $4
	`
	result, err := r.db.ExecContext(ctx, query, string(status), time.Now(), id, sess.ClinicID)
	r.metrics.ObserveDatabase("appointments.update_status", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, repository.ErrNotFound
	}
	return r.Get(ctx, sess, id)
}

func (r *appointmentRepository) FindConflicts(ctx context.Context, sess *model.Session, doctorID string, from, to time.Time) ([]model.RawAppointment, error) {
	if _, err := uuid.Parse(doctorID); err != nil {
		return nil, &repository.ReferenceError{Field: "doctor", Err: err}
	}
	start := time.Now()
	query := "SELECT" + appointmentColumns + appointmentJoins + `
		WHERE a.clinic_id = $1
		  AND a.doctor_id = $2
		  AND a.status NOT IN ('cancelled', 'no-show')
		  AND a.start_time < $4
		  AND a.start_time + make_interval(mins => a.duration) > $3
		ORDER BY a.start_time ASC`

	var rows []appointmentRow
	err := r.db.SelectContext(ctx, &rows, query, sess.ClinicID, doctorID, from, to)
	r.metrics.ObserveDatabase("appointments.conflicts", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to check conflicts: %w", err)
	}
	return toRaws(rows), nil
}
