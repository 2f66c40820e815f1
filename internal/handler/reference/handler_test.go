package reference

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/clinic-scheduler/internal/middleware"
	"github.com/jwalitptl/clinic-scheduler/internal/model"
)

type stubService struct {
	err error
}

func (s stubService) Patients(context.Context, *model.Session) ([]model.Patient, error) {
	return []model.Patient{{ID: "p-1", Name: "Jane Roe"}}, s.err
}

func (s stubService) Doctors(context.Context, *model.Session) ([]model.Doctor, error) {
	return []model.Doctor{{ID: "d-1", Name: "Dr. Who"}}, s.err
}

func (s stubService) Nurses(context.Context, *model.Session) ([]model.Nurse, error) {
	return []model.Nurse{}, s.err
}

func (s stubService) Services(context.Context, *model.Session) ([]model.Service, error) {
	return []model.Service{}, s.err
}

func TestListReferences(t *testing.T) {
	gin.SetMode(gin.TestMode)
	build := func(svc Service) *gin.Engine {
		h := NewHandler(svc)
		r := gin.New()
		r.Use(func(c *gin.Context) {
			c.Set(middleware.ContextSession, &model.Session{ClinicID: "c-1"})
		})
		r.GET("/patients", h.ListPatients)
		r.GET("/doctors", h.ListDoctors)
		r.GET("/nurses", h.ListNurses)
		r.GET("/services", h.ListServices)
		return r
	}

	ok := build(stubService{})
	for _, path := range []string{"/patients", "/doctors", "/nurses", "/services"} {
		w := httptest.NewRecorder()
		ok.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w := httptest.NewRecorder()
	ok.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/doctors", nil))
	assert.Contains(t, w.Body.String(), `"Dr. Who"`)

	w = httptest.NewRecorder()
	build(stubService{err: errors.New("db down")}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/patients", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
