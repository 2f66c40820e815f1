package appointment

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
)

type MockAppointmentRepository struct {
	mock.Mock
}

func (m *MockAppointmentRepository) List(ctx context.Context, sess *model.Session, f model.AppointmentFilters) ([]model.RawAppointment, int, error) {
	args := m.Called(ctx, sess, f)
	raws, _ := args.Get(0).([]model.RawAppointment)
	return raws, args.Int(1), args.Error(2)
}

func (m *MockAppointmentRepository) Get(ctx context.Context, sess *model.Session, id string) (*model.RawAppointment, error) {
	args := m.Called(ctx, sess, id)
	raw, _ := args.Get(0).(*model.RawAppointment)
	return raw, args.Error(1)
}

func (m *MockAppointmentRepository) Create(ctx context.Context, sess *model.Session, apt model.NewAppointment) (*model.RawAppointment, error) {
	args := m.Called(ctx, sess, apt)
	raw, _ := args.Get(0).(*model.RawAppointment)
	return raw, args.Error(1)
}

func (m *MockAppointmentRepository) UpdateStatus(ctx context.Context, sess *model.Session, id string, status model.AppointmentStatus) (*model.RawAppointment, error) {
	args := m.Called(ctx, sess, id, status)
	raw, _ := args.Get(0).(*model.RawAppointment)
	return raw, args.Error(1)
}

func (m *MockAppointmentRepository) FindConflicts(ctx context.Context, sess *model.Session, doctorID string, start, end time.Time) ([]model.RawAppointment, error) {
	args := m.Called(ctx, sess, doctorID, start, end)
	raws, _ := args.Get(0).([]model.RawAppointment)
	return raws, args.Error(1)
}

type MockReferenceRepository struct {
	mock.Mock
}

func (m *MockReferenceRepository) ListPatients(ctx context.Context, sess *model.Session) ([]model.Patient, error) {
	args := m.Called(ctx, sess)
	v, _ := args.Get(0).([]model.Patient)
	return v, args.Error(1)
}

func (m *MockReferenceRepository) ListDoctors(ctx context.Context, sess *model.Session) ([]model.Doctor, error) {
	args := m.Called(ctx, sess)
	v, _ := args.Get(0).([]model.Doctor)
	return v, args.Error(1)
}

func (m *MockReferenceRepository) ListNurses(ctx context.Context, sess *model.Session) ([]model.Nurse, error) {
	args := m.Called(ctx, sess)
	v, _ := args.Get(0).([]model.Nurse)
	return v, args.Error(1)
}

func (m *MockReferenceRepository) ListServices(ctx context.Context, sess *model.Session) ([]model.Service, error) {
	args := m.Called(ctx, sess)
	v, _ := args.Get(0).([]model.Service)
	return v, args.Error(1)
}

type busyLocker struct{}

func (busyLocker) WithLock(context.Context, string, func(context.Context) error) error {
	return lockErr
}
