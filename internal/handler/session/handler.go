package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-scheduler/internal/auth"
	"github.com/jwalitptl/clinic-scheduler/internal/middleware"
	"github.com/jwalitptl/clinic-scheduler/internal/model"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
	"github.com/jwalitptl/clinic-scheduler/pkg/httputil"
	"github.com/jwalitptl/clinic-scheduler/pkg/logger"
)

// Ender revokes a session.
type Ender interface {
	End(token string, session *model.Session)
}

// Teardown releases per-session background work and reports how many tasks
// it stopped.
type Teardown func(tokenID string) int

type Handler struct {
	sessions Ender
	teardown []Teardown
	log      *logger.Logger
}

func NewHandler(sessions Ender, log *logger.Logger, teardown ...Teardown) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{sessions: sessions, teardown: teardown, log: log}
}

type sessionResponse struct {
	User      model.User `json:"user"`
	ClinicID  string     `json:"clinic_id,omitempty"`
	Currency  string     `json:"currency"`
	Timezone  string     `json:"timezone"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// GetSession returns the caller's session, bound to a clinic when the
// request names one it may access.
func (h *Handler) GetSession(c *gin.Context) {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized(nil))
		return
	}

	var clinicID string
	if bound, err := auth.SelectClinic(sess, strings.TrimSpace(c.GetHeader(middleware.HeaderClinicID))); err == nil {
		clinicID = bound.ClinicID
	}

	httputil.RespondWithSuccess(c, sessionResponse{
		User:      sess.User,
		ClinicID:  clinicID,
		Currency:  sess.Currency,
		Timezone:  sess.Timezone,
		ExpiresAt: sess.ExpiresAt,
	})
}

// Logout ends the session and stops everything started with it.
func (h *Handler) Logout(c *gin.Context) {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized(nil))
		return
	}

	h.sessions.End(middleware.TokenFrom(c), sess)
	stopped := 0
	for _, fn := range h.teardown {
		stopped += fn(sess.TokenID)
	}
	h.log.Info("session ended", "user_id", sess.User.ID, "stopped_tasks", stopped)
	httputil.RespondWithStatus(c, http.StatusOK, "Logged out", nil)
}
