package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
)

var ErrNotFound = errors.New("not found")

// ReferenceError reports an appointment field that does not name an existing
// record, either because the id is malformed or because nothing has it.
type ReferenceError struct {
	Field string
	Err   error
}

func (e *ReferenceError) Error() string {
	return "unknown " + e.Field
}

func (e *ReferenceError) Unwrap() error {
	return e.Err
}

// Every method receives the caller's session: the Postgres store scopes by
// its clinic, the upstream store forwards its token and clinic header.
type (
	AppointmentRepository interface {
		// List returns one page plus the total number of matches.
		List(ctx context.Context, sess *model.Session, filters model.AppointmentFilters) ([]model.RawAppointment, int, error)
		Get(ctx context.Context, sess *model.Session, id string) (*model.RawAppointment, error)
		Create(ctx context.Context, sess *model.Session, apt model.NewAppointment) (*model.RawAppointment, error)
		UpdateStatus(ctx context.Context, sess *model.Session, id string, status model.AppointmentStatus) (*model.RawAppointment, error)
		// FindConflicts returns non-cancelled appointments of the doctor overlapping [start, end).
		FindConflicts(ctx context.Context, sess *model.Session, doctorID string, start, end time.Time) ([]model.RawAppointment, error)
	}

	ReferenceRepository interface {
		ListPatients(ctx context.Context, sess *model.Session) ([]model.Patient, error)
		ListDoctors(ctx context.Context, sess *model.Session) ([]model.Doctor, error)
		ListNurses(ctx context.Context, sess *model.Session) ([]model.Nurse, error)
		ListServices(ctx context.Context, sess *model.Session) ([]model.Service, error)
	}

	ComparisonRepository interface {
		Start(ctx context.Context, sess *model.Session, req model.ComparisonRequest) (*model.ComparisonJob, error)
		Get(ctx context.Context, sess *model.Session, id string) (*model.ComparisonJob, error)
	}
)

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
