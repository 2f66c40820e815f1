package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-scheduler/internal/auth"
	"github.com/jwalitptl/clinic-scheduler/internal/handler/analysis"
	"github.com/jwalitptl/clinic-scheduler/internal/handler/appointment"
	"github.com/jwalitptl/clinic-scheduler/internal/handler/health"
	"github.com/jwalitptl/clinic-scheduler/internal/handler/prometheus"
	"github.com/jwalitptl/clinic-scheduler/internal/handler/reference"
	"github.com/jwalitptl/clinic-scheduler/internal/handler/session"
	"github.com/jwalitptl/clinic-scheduler/internal/middleware"
)

// Handlers groups the endpoint handlers. Analysis may be nil when no clinic
// API is configured; its routes are then not registered.
type Handlers struct {
	Health      *health.Handler
	Metrics     *prometheus.Handler
	Session     *session.Handler
	Appointment *appointment.Handler
	Reference   *reference.Handler
	Analysis    *analysis.Handler
}

type RouterConfig struct {
	RateLimitEnabled bool
	RateLimit        rate.Limit
	RateBurst        int
	CORSConfig       middleware.CORSConfig
	RequestTimeout   time.Duration
	MaxBodyBytes     int64
}

type Router struct {
	engine *gin.Engine
	auth   *middleware.AuthMiddleware
	h      Handlers
}

func NewRouter(authMW *middleware.AuthMiddleware, h Handlers, config RouterConfig) (*Router, error) {
	if err := middleware.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		middleware.ErrorHandler(),
	)
	if h.Metrics != nil {
		engine.Use(h.Metrics.Middleware())
	}
	engine.Use(
		middleware.CORS(config.CORSConfig),
		middleware.SecurityHeaders(),
	)
	if config.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(limiter.RateLimit())
	}
	engine.Use(
		middleware.SizeLimit(config.MaxBodyBytes),
		middleware.Timeout(config.RequestTimeout),
	)

	return &Router{engine: engine, auth: authMW, h: h}, nil
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	if r.h.Health != nil {
		r.h.Health.RegisterRoutes(api)
	}
	if r.h.Metrics != nil {
		api.GET("/metrics", r.h.Metrics.Handler())
	}

	authed := api.Group("")
	authed.Use(r.auth.Authenticate())
	authed.GET("/session", r.h.Session.GetSession)
	authed.POST("/auth/logout", r.h.Session.Logout)

	clinic := authed.Group("")
	clinic.Use(r.auth.RequireClinic())
	r.setupAppointmentRoutes(clinic)
	r.setupReferenceRoutes(clinic)
	r.setupAnalysisRoutes(clinic)
}

func (r *Router) setupAppointmentRoutes(rg *gin.RouterGroup) {
	h := r.h.Appointment
	view := r.auth.RequirePermission(auth.PermAppointmentsView)
	create := r.auth.RequirePermission(auth.PermAppointmentsCreate)
	update := r.auth.RequirePermission(auth.PermAppointmentsUpdate)

	appointments := rg.Group("/appointments")
	{
		appointments.GET("", view, h.ListAppointments)
		appointments.POST("", create, h.CreateAppointment)
		appointments.POST("/validate", create, h.ValidateAppointment)
		appointments.GET("/:id", view, h.GetAppointment)
		appointments.PATCH("/:id", update, h.UpdateStatus)
		appointments.POST("/:id/complete", update, h.CompleteAppointment)
		appointments.POST("/:id/cancel", update, h.CancelAppointment)
	}

	rg.GET("/calendar",
		r.auth.RequirePermissions(auth.OR, auth.PermAppointmentsView, auth.PermCalendarView),
		h.Calendar)
	rg.GET("/workspace",
		r.auth.RequirePermissions(auth.AND, auth.PermAppointmentsView, auth.PermPatientsView),
		h.Workspace)
}

func (r *Router) setupReferenceRoutes(rg *gin.RouterGroup) {
	h := r.h.Reference
	rg.GET("/patients", r.auth.RequirePermission(auth.PermPatientsView), h.ListPatients)
	rg.GET("/doctors", r.auth.RequirePermission(auth.PermDoctorsView), h.ListDoctors)
	rg.GET("/nurses", r.auth.RequirePermission(auth.PermNursesView), h.ListNurses)
	rg.GET("/services", r.auth.RequirePermission(auth.PermServicesView), h.ListServices)
}

func (r *Router) setupAnalysisRoutes(rg *gin.RouterGroup) {
	if r.h.Analysis == nil {
		return
	}
	comparisons := rg.Group("/analysis/comparisons")
	comparisons.Use(r.auth.RequirePermission(auth.PermAnalysisRun))
	{
		comparisons.POST("", r.h.Analysis.StartComparison)
		comparisons.GET("/:id", r.h.Analysis.GetComparison)
		comparisons.DELETE("/:id", r.h.Analysis.CancelComparison)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
