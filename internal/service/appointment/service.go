package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jwalitptl/clinic-scheduler/internal/cache"
	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
	"github.com/jwalitptl/clinic-scheduler/internal/schedule"
	"github.com/jwalitptl/clinic-scheduler/pkg/apiclient"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
	"github.com/jwalitptl/clinic-scheduler/pkg/lock"
	"github.com/jwalitptl/clinic-scheduler/pkg/logger"
	"github.com/jwalitptl/clinic-scheduler/pkg/messaging"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
)

// Business rules for new appointments.
const (
	MinAppointmentDuration = 5
	MaxAppointmentDuration = 8 * 60
	DefaultMaxPageSize     = 100
	DefaultCalendarLimit   = 500
)

type Config struct {
	MinLeadTime   time.Duration
	Location      *time.Location
	MaxPageSize   int
	CalendarLimit int
}

type Service struct {
	appointments repository.AppointmentRepository
	references   repository.ReferenceRepository
	broker       messaging.Broker
	locker       lock.Locker
	queries      *cache.QueryCache
	refs         *cache.QueryCache
	metrics      *metrics.Metrics
	log          *logger.Logger
	cfg          Config
	now          func() time.Time
}

type Option func(*Service)

func WithBroker(b messaging.Broker) Option {
	return func(s *Service) { s.broker = b }
}

func WithLocker(l lock.Locker) Option {
	return func(s *Service) { s.locker = l }
}

// WithCaches sets the appointment query cache and the reference list cache.
func WithCaches(queries, refs *cache.QueryCache) Option {
	return func(s *Service) {
		s.queries = queries
		s.refs = refs
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(appointments repository.AppointmentRepository, references repository.ReferenceRepository, cfg Config, opts ...Option) *Service {
	if cfg.MinLeadTime <= 0 {
		cfg.MinLeadTime = schedule.DefaultMinLeadTime
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = DefaultMaxPageSize
	}
	if cfg.CalendarLimit <= 0 {
		cfg.CalendarLimit = DefaultCalendarLimit
	}

	s := &Service{
		appointments: appointments,
		references:   references,
		locker:       lock.NewLocalLocker(),
		log:          logger.Nop(),
		cfg:          cfg,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// location returns the clinic's timezone, falling back to the configured one.
func (s *Service) location(sess *model.Session) *time.Location {
	if sess != nil && sess.Timezone != "" {
		if loc, err := time.LoadLocation(sess.Timezone); err == nil {
			return loc
		}
	}
	return s.cfg.Location
}

func (s *Service) clock(sess *model.Session) time.Time {
	return s.now().In(s.location(sess))
}

func (s *Service) gate(sess *model.Session) schedule.Gate {
	return schedule.Gate{MinLeadTime: s.cfg.MinLeadTime, Location: s.location(sess)}
}

// translate turns repository failures into application errors.
func translate(err error, resource string) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(resource, err)
	}
	var refErr *repository.ReferenceError
	if errors.As(err, &refErr) {
		return apperrors.BadRequest(refErr.Error(), err)
	}
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return &apperrors.AppError{Code: codeFor(apiErr.StatusCode), Message: apiErr.Message, Err: err}
		}
		return apperrors.Upstream(apiErr.Message, err)
	}
	if errors.Is(err, apiclient.ErrUnavailable) {
		return apperrors.Upstream(apiclient.ErrUnavailable.Error(), err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Timeout("request timed out", err)
	}
	return fmt.Errorf("%s: %w", resource, err)
}

func codeFor(status int) apperrors.ErrorCode {
	switch status {
	case 401:
		return apperrors.ErrUnauthorized
	case 403:
		return apperrors.ErrForbidden
	case 404:
		return apperrors.ErrNotFound
	case 409:
		return apperrors.ErrConflict
	}
	return apperrors.ErrBadRequest
}
