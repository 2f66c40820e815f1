package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
)

type referenceRepository struct {
	db      *sqlx.DB
	metrics *metrics.Metrics
}

func NewReferenceRepository(db *sqlx.DB, m *metrics.Metrics) repository.ReferenceRepository {
	return &referenceRepository{db: db, metrics: m}
}

func (r *referenceRepository) list(ctx context.Context, op string, dest interface{}, query, clinicID string) error {
	start := time.Now()
	err := r.db.SelectContext(ctx, dest, query, clinicID)
	r.metrics.ObserveDatabase(op, start, err)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", op, err)
	}
	return nil
}

func (r *referenceRepository) ListPatients(ctx context.Context, sess *model.Session) ([]model.Patient, error) {
	patients := []model.Patient{}
	err := r.list(ctx, "patients", &patients, `
		SELECT id, clinic_id, name, email, phone, status
		FROM patients WHERE clinic_id = $1 ORDER BY name`, sess.ClinicID)
	return patients, err
}

func (r *referenceRepository) ListDoctors(ctx context.Context, sess *model.Session) ([]model.Doctor, error) {
	doctors := []model.Doctor{}
	err := r.list(ctx, "doctors", &doctors, `
		SELECT id, clinic_id, name, email, phone, specialty
		FROM doctors WHERE clinic_id = $1 ORDER BY name`, sess.ClinicID)
	return doctors, err
}

func (r *referenceRepository) ListNurses(ctx context.Context, sess *model.Session) ([]model.Nurse, error) {
	nurses := []model.Nurse{}
	err := r.list(ctx, "nurses", &nurses, `
		SELECT id, clinic_id, name, phone
		FROM nurses WHERE clinic_id = $1 ORDER BY name`, sess.ClinicID)
	return nurses, err
}

func (r *referenceRepository) ListServices(ctx context.Context, sess *model.Session) ([]model.Service, error) {
	services := []model.Service{}
	err := r.list(ctx, "services", &services, `
		SELECT id, clinic_id, name, duration, price
		FROM services WHERE clinic_id = $1 ORDER BY name`, sess.ClinicID)
	return services, err
}
