package appointment

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/jwalitptl/clinic-scheduler/internal/cache"
	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/schedule"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
)

type page struct {
	raws  []model.RawAppointment
	total int
}

// repoStatus maps a status filter onto the repository filter. "all" and ""
// mean no filter.
func repoStatus(filter string) model.AppointmentStatus {
	if filter == "" || filter == model.StatusAll {
		return ""
	}
	return model.AppointmentStatus(filter)
}

func (s *Service) fetch(ctx context.Context, sess *model.Session, f model.AppointmentFilters) (page, error) {
	key := cache.Key("appointments",
		schedule.FormatQueryTime(f.Range.Start), schedule.FormatQueryTime(f.Range.End),
		string(f.Status), f.DoctorID, f.Search, strconv.Itoa(f.Page), strconv.Itoa(f.Limit))

	return cache.Remember(s.queries, sess.ClinicID, key, func() (page, error) {
		raws, total, err := s.appointments.List(ctx, sess, f)
		if err != nil {
			return page{}, translate(err, "appointments")
		}
		return page{raws: raws, total: total}, nil
	})
}

// List runs the list screen pipeline: range from the date filter, fetch,
// normalize, filter, then stats over the filtered set. The search term goes
// to the store as well, so the page total only counts matches where the store
// can search; the upstream API cannot, and its total is the pre-search count.
func (s *Service) List(ctx context.Context, sess *model.Session, q model.AppointmentQuery) (*model.AppointmentList, error) {
	if !schedule.ValidStatusFilter(q.Status) {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid status filter %q", q.Status), nil)
	}

	now := s.clock(sess)
	r := schedule.CalculateRange(q.DateFilter, q.Date, now)
	pg := q.Pagination.Normalize(s.cfg.MaxPageSize)

	res, err := s.fetch(ctx, sess, model.AppointmentFilters{
		ClinicID:   sess.ClinicID,
		Range:      r,
		Status:     repoStatus(q.Status),
		Search:     q.Search,
		Pagination: pg,
	})
	if err != nil {
		return nil, err
	}

	appts := schedule.Filter(schedule.NormalizeAll(res.raws), q.Search, q.Status)
	list := &model.AppointmentList{
		Appointments: appts,
		Stats:        schedule.ComputeStats(appts, now),
		Pagination:   model.NewPageInfo(pg, res.total),
	}
	if !r.IsZero() {
		list.Range = &r
	}
	return list, nil
}

// Get returns one normalized appointment.
func (s *Service) Get(ctx context.Context, sess *model.Session, id string) (*model.Appointment, error) {
	raw, err := s.appointments.Get(ctx, sess, id)
	if err != nil {
		return nil, translate(err, "appointment")
	}
	apt := schedule.Normalize(*raw)
	return &apt, nil
}

// Calendar builds the grid for the requested view. A custom-date filter pins
// the view to that day.
func (s *Service) Calendar(ctx context.Context, sess *model.Session, q model.CalendarQuery) (*model.CalendarGrid, error) {
	if !schedule.ValidStatusFilter(q.Status) {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid status filter %q", q.Status), nil)
	}

	now := s.clock(sess)
	view := schedule.ResolveView(q.DateFilter, q.Date, model.ViewMode(q.View), q.CurrentDate, now)

	appts := []model.Appointment{}
	if !view.Empty {
		res, err := s.fetch(ctx, sess, model.AppointmentFilters{
			ClinicID:   sess.ClinicID,
			Range:      view.Range,
			Status:     repoStatus(q.Status),
			Search:     q.Search,
			Pagination: model.Pagination{Page: 1, Limit: s.cfg.CalendarLimit},
		})
		if err != nil {
			return nil, err
		}
		appts = schedule.Filter(schedule.NormalizeAll(res.raws), q.Search, q.Status)
	}

	grid := schedule.BuildGrid(view.CurrentDate, view.Mode, schedule.ToEvents(appts), now)
	grid.Stats = schedule.ComputeStats(appts, now)
	return &grid, nil
}

// Workspace loads the reference lists and the appointment list concurrently.
// Any failure fails the whole load with that single error; the lists that
// did not load are left empty.
func (s *Service) Workspace(ctx context.Context, sess *model.Session, q model.AppointmentQuery) (*model.Workspace, error) {
	ws := &model.Workspace{
		Patients:     []model.Patient{},
		Doctors:      []model.Doctor{},
		Nurses:       []model.Nurse{},
		Services:     []model.Service{},
		Appointments: []model.Appointment{},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.Patients(gctx, sess)
		if err == nil {
			ws.Patients = v
		}
		return err
	})
	g.Go(func() error {
		v, err := s.Doctors(gctx, sess)
		if err == nil {
			ws.Doctors = v
		}
		return err
	})
	g.Go(func() error {
		v, err := s.Nurses(gctx, sess)
		if err == nil {
			ws.Nurses = v
		}
		return err
	})
	g.Go(func() error {
		v, err := s.Services(gctx, sess)
		if err == nil {
			ws.Services = v
		}
		return err
	})
	g.Go(func() error {
		list, err := s.List(gctx, sess, q)
		if err == nil {
			ws.Appointments = list.Appointments
		}
		return err
	})

	if err := g.Wait(); err != nil {
		s.log.Error(err, "workspace load failed", "clinic_id", sess.ClinicID)
		return ws, err
	}
	return ws, nil
}

func (s *Service) Patients(ctx context.Context, sess *model.Session) ([]model.Patient, error) {
	return cache.Remember(s.refs, sess.ClinicID, "patients", func() ([]model.Patient, error) {
		v, err := s.references.ListPatients(ctx, sess)
		return nonNil(v), translate(err, "patients")
	})
}

func (s *Service) Doctors(ctx context.Context, sess *model.Session) ([]model.Doctor, error) {
	return cache.Remember(s.refs, sess.ClinicID, "doctors", func() ([]model.Doctor, error) {
		v, err := s.references.ListDoctors(ctx, sess)
		return nonNil(v), translate(err, "doctors")
	})
}

func (s *Service) Nurses(ctx context.Context, sess *model.Session) ([]model.Nurse, error) {
	return cache.Remember(s.refs, sess.ClinicID, "nurses", func() ([]model.Nurse, error) {
		v, err := s.references.ListNurses(ctx, sess)
		return nonNil(v), translate(err, "nurses")
	})
}

func (s *Service) Services(ctx context.Context, sess *model.Session) ([]model.Service, error) {
	return cache.Remember(s.refs, sess.ClinicID, "services", func() ([]model.Service, error) {
		v, err := s.references.ListServices(ctx, sess)
		return nonNil(v), translate(err, "services")
	})
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
