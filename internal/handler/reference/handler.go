package reference

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-scheduler/internal/middleware"
	"github.com/jwalitptl/clinic-scheduler/internal/model"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
	"github.com/jwalitptl/clinic-scheduler/pkg/httputil"
)

// Service lists the reference data that populates appointment forms.
type Service interface {
	Patients(ctx context.Context, sess *model.Session) ([]model.Patient, error)
	Doctors(ctx context.Context, sess *model.Session) ([]model.Doctor, error)
	Nurses(ctx context.Context, sess *model.Session) ([]model.Nurse, error)
	Services(ctx context.Context, sess *model.Session) ([]model.Service, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func list[T any](c *gin.Context, load func(context.Context, *model.Session) ([]T, error)) {
	sess, ok := middleware.SessionFrom(c)
	if !ok || sess.ClinicID == "" {
		httputil.RespondWithError(c, apperrors.BadRequest("clinic ID is required", nil))
		return
	}
	items, err := load(c.Request.Context(), sess)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, items)
}

func (h *Handler) ListPatients(c *gin.Context) { list(c, h.service.Patients) }

func (h *Handler) ListDoctors(c *gin.Context) { list(c, h.service.Doctors) }

func (h *Handler) ListNurses(c *gin.Context) { list(c, h.service.Nurses) }

func (h *Handler) ListServices(c *gin.Context) { list(c, h.service.Services) }
