package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-scheduler/internal/auth"
	"github.com/jwalitptl/clinic-scheduler/internal/model"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
	"github.com/jwalitptl/clinic-scheduler/pkg/httputil"
)

const (
	HeaderClinicID = "X-Clinic-ID"

	ContextSession = "session"
	ContextToken   = "access_token"
)

// SessionResolver turns a bearer token into a session.
type SessionResolver interface {
	Resolve(token string) (*model.Session, error)
}

type AuthMiddleware struct {
	sessions SessionResolver
}

func NewAuthMiddleware(sessions SessionResolver) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// Authenticate verifies the bearer token and stores the session in context
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			httputil.RespondWithError(c, &apperrors.AppError{Code: apperrors.ErrUnauthorized, Message: err.Error(), Err: err})
			return
		}

		session, err := m.sessions.Resolve(token)
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, auth.ErrSessionRevoked) {
				msg = "session has ended"
			}
			httputil.RespondWithError(c, &apperrors.AppError{Code: apperrors.ErrUnauthorized, Message: msg, Err: err})
			return
		}

		c.Set(ContextSession, session)
		c.Set(ContextToken, token)
		c.Next()
	}
}

// RequireClinic binds the session to the clinic named by X-Clinic-ID, or to
// the user's only clinic.
func (m *AuthMiddleware) RequireClinic() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := SessionFrom(c)
		if !ok {
			httputil.RespondWithError(c, apperrors.Unauthorized(nil))
			return
		}

		bound, err := auth.SelectClinic(session, strings.TrimSpace(c.GetHeader(HeaderClinicID)))
		switch {
		case errors.Is(err, auth.ErrNoClinic):
			httputil.RespondWithError(c, apperrors.BadRequest("clinic ID is required", err))
			return
		case errors.Is(err, auth.ErrClinicDenied):
			httputil.RespondWithError(c, apperrors.Forbidden("clinic not accessible", err))
			return
		case err != nil:
			httputil.RespondWithError(c, err)
			return
		}

		c.Set(ContextSession, bound)
		c.Next()
	}
}

// RequirePermissions aborts with 403 unless the user holds the permissions
// combined with op.
func (m *AuthMiddleware) RequirePermissions(op auth.Operator, permissions ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := SessionFrom(c)
		if !ok {
			httputil.RespondWithError(c, apperrors.Unauthorized(nil))
			return
		}
		if !auth.HasPermission(&session.User, permissions, op) {
			httputil.RespondWithError(c, apperrors.Forbidden("", nil))
			return
		}
		c.Next()
	}
}

// RequirePermission is RequirePermissions with a single permission.
func (m *AuthMiddleware) RequirePermission(permission string) gin.HandlerFunc {
	return m.RequirePermissions(auth.AND, permission)
}

// SessionFrom returns the session set by Authenticate.
func SessionFrom(c *gin.Context) (*model.Session, bool) {
	v, ok := c.Get(ContextSession)
	if !ok {
		return nil, false
	}
	session, ok := v.(*model.Session)
	return session, ok && session != nil
}

// TokenFrom returns the raw bearer token of the request.
func TokenFrom(c *gin.Context) string {
	return c.GetString(ContextToken)
}
