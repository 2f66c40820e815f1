package analysis

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-scheduler/internal/middleware"
	"github.com/jwalitptl/clinic-scheduler/internal/model"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
	"github.com/jwalitptl/clinic-scheduler/pkg/httputil"
)

type Service interface {
	Start(ctx context.Context, sess *model.Session, req model.ComparisonRequest) (*model.ComparisonJob, error)
	Get(sess *model.Session, id string) (*model.ComparisonJob, error)
	Cancel(sess *model.Session, id string) (*model.ComparisonJob, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func session(c *gin.Context) (*model.Session, bool) {
	sess, ok := middleware.SessionFrom(c)
	if !ok || sess.ClinicID == "" {
		httputil.RespondWithError(c, apperrors.BadRequest("clinic ID is required", nil))
		return nil, false
	}
	return sess, true
}

// StartComparison submits a lab comparison and answers 202 with the job; the
// client polls GetComparison until the status is terminal.
func (h *Handler) StartComparison(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	var req model.ComparisonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	job, err := h.service.Start(c.Request.Context(), sess, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithStatus(c, http.StatusAccepted, "Analysis started", job)
}

func (h *Handler) GetComparison(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	job, err := h.service.Get(sess, c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, job)
}

func (h *Handler) CancelComparison(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	job, err := h.service.Cancel(sess, c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithStatus(c, http.StatusOK, "Analysis cancelled", job)
}
