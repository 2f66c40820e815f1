package upstream

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
)

type comparisonRepository struct {
	api API
	now func() time.Time
}

func NewComparisonRepository(api API) repository.ComparisonRepository {
	return &comparisonRepository{api: api, now: time.Now}
}

type comparisonDTO struct {
	ID        string                 `json:"id"`
	MongoID   string                 `json:"_id"`
	JobID     string                 `json:"job_id"`
	PatientID string                 `json:"patient_id"`
	Status    model.ComparisonStatus `json:"status"`
	Result    model.JSONMap          `json:"result"`
	Error     string                 `json:"error"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

func (r *comparisonRepository) toJob(sess *model.Session, dto comparisonDTO) *model.ComparisonJob {
	job := &model.ComparisonJob{
		ID:        dto.ID,
		ClinicID:  sess.ClinicID,
		PatientID: dto.PatientID,
		Status:    dto.Status,
		Result:    dto.Result,
		Error:     dto.Error,
		StartedAt: dto.CreatedAt,
		UpdatedAt: dto.UpdatedAt,
	}
	if job.ID == "" {
		job.ID = dto.JobID
	}
	if job.ID == "" {
		job.ID = dto.MongoID
	}
	if job.Status == "" {
		job.Status = model.ComparisonPending
	}
	if job.UpdatedAt.IsZero() {
		job.UpdatedAt = r.now()
	}
	return job
}

func (r *comparisonRepository) Start(ctx context.Context, sess *model.Session, req model.ComparisonRequest) (*model.ComparisonJob, error) {
	var dto comparisonDTO
	if err := r.api.Post(ctx, "/ai/comparisons", req, &dto, sessionOpts(sess)...); err != nil {
		return nil, fmt.Errorf("failed to start comparison: %w", err)
	}
	job := r.toJob(sess, dto)
	if job.ID == "" {
		return nil, fmt.Errorf("comparison response carried no job id")
	}
	if job.PatientID == "" {
		job.PatientID = req.PatientID
	}
	return job, nil
}

func (r *comparisonRepository) Get(ctx context.Context, sess *model.Session, id string) (*model.ComparisonJob, error) {
	var dto comparisonDTO
	if err := r.api.Get(ctx, "/ai/comparisons/"+id, nil, &dto, sessionOpts(sess)...); err != nil {
		return nil, translate(err)
	}
	job := r.toJob(sess, dto)
	if job.ID == "" {
		job.ID = id
	}
	return job, nil
}
