package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-scheduler/internal/auth"
	"github.com/jwalitptl/clinic-scheduler/internal/handler/appointment"
	"github.com/jwalitptl/clinic-scheduler/internal/handler/health"
	"github.com/jwalitptl/clinic-scheduler/internal/handler/prometheus"
	"github.com/jwalitptl/clinic-scheduler/internal/handler/reference"
	"github.com/jwalitptl/clinic-scheduler/internal/handler/session"
	"github.com/jwalitptl/clinic-scheduler/internal/middleware"
	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/schedule"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
)

type stubAppointments struct{}

func (stubAppointments) List(context.Context, *model.Session, model.AppointmentQuery) (*model.AppointmentList, error) {
	return &model.AppointmentList{Appointments: []model.Appointment{}}, nil
}

func (stubAppointments) Get(_ context.Context, _ *model.Session, id string) (*model.Appointment, error) {
	return &model.Appointment{ID: id}, nil
}

func (stubAppointments) Create(context.Context, *model.Session, model.CreateAppointmentRequest) (*model.Appointment, error) {
	return &model.Appointment{ID: "a-new"}, nil
}

func (stubAppointments) Validate(*model.Session, model.ValidateAppointmentRequest) schedule.Result {
	return schedule.Result{}
}

func (stubAppointments) UpdateStatus(_ context.Context, _ *model.Session, id string, req model.UpdateStatusRequest) (*model.Appointment, error) {
	return &model.Appointment{ID: id, Status: req.Status}, nil
}

func (stubAppointments) Complete(_ context.Context, _ *model.Session, id string) (*model.Appointment, error) {
	return &model.Appointment{ID: id}, nil
}

func (stubAppointments) Cancel(_ context.Context, _ *model.Session, id, _ string) (*model.Appointment, error) {
	return &model.Appointment{ID: id}, nil
}

func (stubAppointments) Calendar(context.Context, *model.Session, model.CalendarQuery) (*model.CalendarGrid, error) {
	return &model.CalendarGrid{}, nil
}

func (stubAppointments) Workspace(context.Context, *model.Session, model.AppointmentQuery) (*model.Workspace, error) {
	return &model.Workspace{}, nil
}

func (stubAppointments) Patients(context.Context, *model.Session) ([]model.Patient, error) {
	return []model.Patient{}, nil
}

func (stubAppointments) Doctors(context.Context, *model.Session) ([]model.Doctor, error) {
	return []model.Doctor{}, nil
}

func (stubAppointments) Nurses(context.Context, *model.Session) ([]model.Nurse, error) {
	return []model.Nurse{}, nil
}

func (stubAppointments) Services(context.Context, *model.Session) ([]model.Service, error) {
	return []model.Service{}, nil
}

type fixture struct {
	engine *gin.Engine
	tokens *auth.TokenService
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tokens := auth.NewTokenService(auth.TokenConfig{Secret: "router-secret", TTL: time.Hour})
	store := auth.NewSessionStore(tokens, auth.SessionDefaults{Currency: "USD", Timezone: "UTC"})
	reg := promclient.NewRegistry()

	svc := stubAppointments{}
	r, err := NewRouter(middleware.NewAuthMiddleware(store), Handlers{
		Health:      health.NewHandler(nil),
		Metrics:     prometheus.New(reg, metrics.NewMetrics(reg, "router_test")),
		Session:     session.NewHandler(store, nil),
		Appointment: appointment.NewHandler(svc),
		Reference:   reference.NewHandler(svc),
	}, RouterConfig{CORSConfig: middleware.DefaultCORSConfig()})
	require.NoError(t, err)
	r.Setup()
	return fixture{engine: r.Engine(), tokens: tokens}
}

func (f fixture) token(t *testing.T, perms ...string) string {
	t.Helper()
	tok, err := f.tokens.Issue(model.User{ID: "u-1", Permissions: perms, ClinicIDs: []string{"c-1"}}, "")
	require.NoError(t, err)
	return tok
}

func (f fixture) do(method, path, token string) int {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w.Code
}

func TestRouter_PublicRoutes(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/v1/health/live", ""))
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/v1/health/ready", ""))
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/v1/metrics", ""))
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/v1/session", ""))
}

func TestRouter_PermissionGuards(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		perms []string
		path  string
		want  int
	}{
		{"list with view", []string{auth.PermAppointmentsView}, "/api/v1/appointments", http.StatusOK},
		{"list without view", []string{auth.PermCalendarView}, "/api/v1/appointments", http.StatusForbidden},
		{"calendar with calendar.view", []string{auth.PermCalendarView}, "/api/v1/calendar", http.StatusOK},
		{"calendar with appointments.view", []string{auth.PermAppointmentsView}, "/api/v1/calendar", http.StatusOK},
		{"calendar with neither", []string{auth.PermDoctorsView}, "/api/v1/calendar", http.StatusForbidden},
		{"workspace needs both", []string{auth.PermAppointmentsView}, "/api/v1/workspace", http.StatusForbidden},
		{"workspace with both", []string{auth.PermAppointmentsView, auth.PermPatientsView}, "/api/v1/workspace", http.StatusOK},
		{"doctors", []string{auth.PermDoctorsView}, "/api/v1/doctors", http.StatusOK},
		{"wildcard", []string{auth.Wildcard}, "/api/v1/services", http.StatusOK},
		{"session needs no permission", nil, "/api/v1/session", http.StatusOK},
		{"analysis not configured", []string{auth.Wildcard}, "/api/v1/analysis/comparisons/x", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.do(http.MethodGet, tt.path, f.token(t, tt.perms...)))
		})
	}
}

func TestRouter_MutationsNeedUpdate(t *testing.T) {
	f := newFixture(t)
	viewer := f.token(t, auth.PermAppointmentsView)
	editor := f.token(t, auth.PermAppointmentsUpdate)

	assert.Equal(t, http.StatusForbidden, f.do(http.MethodPost, "/api/v1/appointments/a-1/complete", viewer))
	assert.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/v1/appointments/a-1/complete", editor))
}
