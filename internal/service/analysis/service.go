// Package analysis runs AI comparison jobs on the clinic API and follows them
// to completion with a cancellable poller.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
	"github.com/jwalitptl/clinic-scheduler/pkg/logger"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
	"github.com/jwalitptl/clinic-scheduler/pkg/poller"
)

const pollTask = "comparison"

type Config struct {
	Interval    time.Duration
	MaxAttempts int
	// Retention is how long finished jobs stay queryable.
	Retention time.Duration
}

type tracked struct {
	mu      sync.Mutex
	job     model.ComparisonJob
	tokenID string
}

func (t *tracked) snapshot() *model.ComparisonJob {
	t.mu.Lock()
	defer t.mu.Unlock()
	job := t.job
	return &job
}

func (t *tracked) update(fn func(job *model.ComparisonJob)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.job)
}

type Service struct {
	repo    repository.ComparisonRepository
	jobs    *gocache.Cache
	polls   *poller.Group
	cfg     Config
	metrics *metrics.Metrics
	log     *logger.Logger
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

func NewService(repo repository.ComparisonRepository, cfg Config, m *metrics.Metrics, log *logger.Logger) *Service {
	if cfg.Interval <= 0 {
		cfg.Interval = 3 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 40
	}
	if cfg.Retention <= 0 {
		cfg.Retention = time.Hour
	}
	if log == nil {
		log = logger.Nop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		repo:    repo,
		jobs:    gocache.New(cfg.Retention, cfg.Retention/2),
		polls:   poller.NewGroup(),
		cfg:     cfg,
		metrics: m,
		log:     log,
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start submits a comparison and begins polling it in the background. The
// poll outlives the request but not the service.
func (s *Service) Start(ctx context.Context, sess *model.Session, req model.ComparisonRequest) (*model.ComparisonJob, error) {
	if s.repo == nil {
		return nil, apperrors.BadRequest("comparisons require the clinic API data source", nil)
	}

	job, err := s.repo.Start(ctx, sess, req)
	if err != nil {
		return nil, fmt.Errorf("failed to start comparison: %w", err)
	}
	if job.StartedAt.IsZero() {
		job.StartedAt = s.now()
	}
	job.ClinicID = sess.ClinicID

	t := &tracked{job: *job, tokenID: sess.TokenID}
	s.jobs.SetDefault(job.ID, t)
	if job.Status.Terminal() {
		return t.snapshot(), nil
	}

	// The session is copied; the poll keeps the caller's token after the
	// request returns.
	owner := *sess
	h := poller.Start(s.ctx, poller.Config{Interval: s.cfg.Interval, MaxAttempts: s.cfg.MaxAttempts},
		func(ctx context.Context, attempt int) (*model.ComparisonJob, bool, error) {
			s.metrics.ObservePollAttempt(pollTask)
			latest, err := s.repo.Get(ctx, &owner, job.ID)
			if err != nil {
				return nil, false, err
			}
			t.update(func(j *model.ComparisonJob) {
				j.Status = latest.Status
				j.Result = latest.Result
				j.Error = latest.Error
				j.Attempts = attempt
				j.UpdatedAt = s.now()
			})
			return latest, latest.Status.Terminal(), nil
		})
	s.polls.Add(job.ID, h.Cancel)

	go s.settle(job.ID, t, h)
	return t.snapshot(), nil
}

// settle records how a poll ended.
func (s *Service) settle(id string, t *tracked, h *poller.Handle[*model.ComparisonJob]) {
	<-h.Done()
	s.polls.Remove(id)

	_, err := h.Result()
	outcome := "completed"
	t.update(func(j *model.ComparisonJob) {
		j.Attempts = h.Attempts()
		j.UpdatedAt = s.now()
		switch {
		case err == nil:
			outcome = string(j.Status)
		case errors.Is(err, poller.ErrTimeout):
			j.Status = model.ComparisonTimeout
			j.Error = "Analysis is taking longer than expected"
			outcome = "timeout"
		case errors.Is(err, poller.ErrCancelled):
			j.Status = model.ComparisonCancelled
			outcome = "cancelled"
		default:
			j.Status = model.ComparisonFailed
			j.Error = err.Error()
			outcome = "error"
		}
	})
	s.metrics.ObservePollOutcome(pollTask, outcome)
	s.log.Debug("comparison poll finished", "job_id", id, "outcome", outcome, "attempts", h.Attempts())
}

func (s *Service) lookup(sess *model.Session, id string) (*tracked, error) {
	v, ok := s.jobs.Get(id)
	if !ok {
		return nil, apperrors.NotFound("comparison", nil)
	}
	t := v.(*tracked)
	if t.snapshot().ClinicID != sess.ClinicID {
		return nil, apperrors.NotFound("comparison", nil)
	}
	return t, nil
}

// Get returns the latest known state of a job started in this clinic.
func (s *Service) Get(sess *model.Session, id string) (*model.ComparisonJob, error) {
	t, err := s.lookup(sess, id)
	if err != nil {
		return nil, err
	}
	return t.snapshot(), nil
}

// Cancel stops polling a job. A job that already finished keeps its status.
func (s *Service) Cancel(sess *model.Session, id string) (*model.ComparisonJob, error) {
	t, err := s.lookup(sess, id)
	if err != nil {
		return nil, err
	}
	if !s.polls.Cancel(id) {
		return t.snapshot(), nil
	}
	t.update(func(j *model.ComparisonJob) {
		if !j.Status.Terminal() {
			j.Status = model.ComparisonCancelled
		}
	})
	return t.snapshot(), nil
}

// CancelSession stops every poll started with the given session token and
// returns how many were stopped.
func (s *Service) CancelSession(tokenID string) int {
	if tokenID == "" {
		return 0
	}
	n := 0
	for id, item := range s.jobs.Items() {
		t := item.Object.(*tracked)
		if t.tokenID == tokenID && s.polls.Cancel(id) {
			n++
		}
	}
	return n
}

// Active returns the number of running polls.
func (s *Service) Active() int {
	return s.polls.Len()
}

// Shutdown cancels every running poll.
func (s *Service) Shutdown() {
	s.polls.CancelAll()
	s.cancel()
}
