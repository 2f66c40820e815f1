package appointment

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-scheduler/internal/middleware"
	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/schedule"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
	"github.com/jwalitptl/clinic-scheduler/pkg/httputil"
)

// Service is what the appointment endpoints need from the service layer.
type Service interface {
	List(ctx context.Context, sess *model.Session, q model.AppointmentQuery) (*model.AppointmentList, error)
	Get(ctx context.Context, sess *model.Session, id string) (*model.Appointment, error)
	Create(ctx context.Context, sess *model.Session, req model.CreateAppointmentRequest) (*model.Appointment, error)
	Validate(sess *model.Session, req model.ValidateAppointmentRequest) schedule.Result
	UpdateStatus(ctx context.Context, sess *model.Session, id string, req model.UpdateStatusRequest) (*model.Appointment, error)
	Complete(ctx context.Context, sess *model.Session, id string) (*model.Appointment, error)
	Cancel(ctx context.Context, sess *model.Session, id, reason string) (*model.Appointment, error)
	Calendar(ctx context.Context, sess *model.Session, q model.CalendarQuery) (*model.CalendarGrid, error)
	Workspace(ctx context.Context, sess *model.Session, q model.AppointmentQuery) (*model.Workspace, error)
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

func (h *Handler) ListAppointments(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	var q model.AppointmentQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	list, err := h.service.List(c.Request.Context(), sess, q)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}

	apt, err := h.service.Get(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	apt, err := h.service.Create(c.Request.Context(), sess, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithStatus(c, http.StatusCreated, "Appointment created", apt)
}

// ValidateAppointment runs the submission gate without booking. The outcome
// is always 200; the body says whether submission would be accepted.
func (h *Handler) ValidateAppointment(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	var req model.ValidateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, h.service.Validate(sess, req))
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	var req model.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	apt, err := h.service.UpdateStatus(c.Request.Context(), sess, c.Param("id"), req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithStatus(c, http.StatusOK, "Appointment updated", apt)
}

func (h *Handler) CompleteAppointment(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}

	apt, err := h.service.Complete(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithStatus(c, http.StatusOK, "Appointment completed", apt)
}

type cancelRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	var req cancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httputil.RespondWithError(c, err)
			return
		}
	}

	apt, err := h.service.Cancel(c.Request.Context(), sess, c.Param("id"), req.Reason)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithStatus(c, http.StatusOK, "Appointment cancelled", apt)
}

func (h *Handler) Calendar(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	var q model.CalendarQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	grid, err := h.service.Calendar(c.Request.Context(), sess, q)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, grid)
}

// Workspace returns everything the appointment screen needs in one call. A
// failure of any part fails the whole request.
func (h *Handler) Workspace(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	var q model.AppointmentQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	ws, err := h.service.Workspace(c.Request.Context(), sess, q)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, ws)
}
