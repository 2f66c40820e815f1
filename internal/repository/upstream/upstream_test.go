package upstream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
	"github.com/jwalitptl/clinic-scheduler/internal/schedule"
	"github.com/jwalitptl/clinic-scheduler/pkg/apiclient"
)

var testSession = &model.Session{AccessToken: "tok", ClinicID: "c-1"}

func newAPI(t *testing.T, h http.HandlerFunc) *apiclient.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := apiclient.New(apiclient.Config{BaseURL: srv.URL}, nil, nil)
	require.NoError(t, err)
	return c
}

func TestDecodeList_Shapes(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		total int
		n     int
	}{
		{"bare array", `[{"id":"a"},{"id":"b"}]`, -1, 2},
		{"data with pagination", `{"data":[{"id":"a"}],"pagination":{"total":7}}`, 7, 1},
		{"nested data object", `{"success":true,"data":{"appointments":[{"id":"a"},{"id":"b"}],"total":12}}`, 12, 2},
		{"named key", `{"patients":[{"id":"a"}],"totalCount":3}`, 3, 1},
		{"empty body", ``, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out []map[string]interface{}
			total, err := decodeList([]byte(tt.body), &out)
			require.NoError(t, err)
			assert.Equal(t, tt.total, total)
			assert.Len(t, out, tt.n)
		})
	}

	var out []map[string]interface{}
	_, err := decodeList([]byte(`{"message":"ok"}`), &out)
	assert.Error(t, err)
}

func TestAppointmentRepository_List(t *testing.T) {
	loc := time.FixedZone("test", 0)
	api := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/appointments", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "c-1", r.Header.Get(HeaderClinicID))
		q := r.URL.Query()
		assert.Equal(t, "2024-03-15T00:00:00.000", q.Get("start_date"))
		assert.Equal(t, "2024-03-15T23:59:59.999", q.Get("end_date"))
		assert.False(t, q.Has("status"))
		assert.Equal(t, "2", q.Get("page"))
		_, _ = io.WriteString(w, `{"data":[
			{"_id":"a1","patient_id":{"_id":"p1","name":"Jane Doe"},"doctor_id":"d1","date":"2024-03-15T10:00:00Z","status":"scheduled"}
		],"pagination":{"total":21}}`)
	})

	day := time.Date(2024, 3, 15, 0, 0, 0, 0, loc)
	repo := NewAppointmentRepository(api)
	raws, total, err := repo.List(context.Background(), testSession, model.AppointmentFilters{
		Range:      model.DateRange{Start: day, End: day.Add(24*time.Hour - time.Millisecond)},
		Status:     model.AppointmentStatusScheduled,
		Pagination: model.Pagination{Page: 2, Limit: 20},
	})
	require.NoError(t, err)
	assert.Equal(t, 21, total)
	require.Len(t, raws, 1)
	assert.Equal(t, "a1", raws[0].ID)
	assert.True(t, raws[0].Patient.IsResolved())
	assert.Equal(t, "d1", raws[0].Doctor.ID)
	assert.False(t, raws[0].Doctor.IsResolved())
}

func TestAppointmentRepository_GetNotFound(t *testing.T) {
	api := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"Appointment not found"}`)
	})

	_, err := NewAppointmentRepository(api).Get(context.Background(), testSession, "missing")
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestAppointmentRepository_UpdateStatus(t *testing.T) {
	api := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/appointments/a1", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"status":"cancelled"}`, string(body))
		_, _ = io.WriteString(w, `{"success":true}`)
	})

	raw, err := NewAppointmentRepository(api).UpdateStatus(context.Background(), testSession, "a1", model.AppointmentStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, "a1", raw.ID)
	assert.Equal(t, model.AppointmentStatusCancelled, raw.Status)
}

func TestAppointmentRepository_FindConflicts(t *testing.T) {
	api := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "d1", r.URL.Query().Get("doctor_id"))
		_, _ = io.WriteString(w, `[
			{"id":"a1","doctor":"d1","start_time":"2024-03-15T09:45:00Z","duration":30,"status":"scheduled"},
			{"id":"a2","doctor":"d1","start_time":"2024-03-15T10:30:00Z","duration":30,"status":"confirmed"},
			{"id":"a3","doctor":"d1","start_time":"2024-03-15T10:00:00Z","duration":30,"status":"cancelled"},
			{"id":"a4","doctor":"d2","start_time":"2024-03-15T10:00:00Z","duration":30,"status":"scheduled"}
		]`)
	})

	start := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	conflicts, err := NewAppointmentRepository(api).FindConflicts(context.Background(), testSession, "d1", start, start.Add(30*time.Minute))
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "a1", conflicts[0].ID)
}

func TestAppointmentRepository_FindConflictsPastMidnight(t *testing.T) {
	start := time.Date(2024, 3, 15, 22, 0, 0, 0, time.UTC)
	end := start.Add(8 * time.Hour)

	api := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, schedule.FormatQueryTime(end), r.URL.Query().Get("end_date"))
		_, _ = io.WriteString(w, `[
			{"id":"a1","doctor":"d1","start_time":"2024-03-16T00:30:00Z","duration":30,"status":"scheduled"}
		]`)
	})

	conflicts, err := NewAppointmentRepository(api).FindConflicts(context.Background(), testSession, "d1", start, end)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "a1", conflicts[0].ID)
}

func TestReferenceRepository_ListDoctors(t *testing.T) {
	api := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/doctors", r.URL.Path)
		_, _ = io.WriteString(w, `{"data":{"doctors":[
			{"_id":"d1","first_name":"Ann","last_name":"Lee","specialization":"Cardiology"}
		]}}`)
	})

	doctors, err := NewReferenceRepository(api).ListDoctors(context.Background(), testSession)
	require.NoError(t, err)
	require.Len(t, doctors, 1)
	assert.Equal(t, model.Doctor{ID: "d1", ClinicID: "c-1", Name: "Ann Lee", Specialty: "Cardiology"}, doctors[0])
}

func TestComparisonRepository_StartAndGet(t *testing.T) {
	api := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			assert.Equal(t, "/ai/comparisons", r.URL.Path)
			_, _ = io.WriteString(w, `{"data":{"job_id":"j1","status":"processing"}}`)
		default:
			assert.Equal(t, "/ai/comparisons/j1", r.URL.Path)
			_, _ = io.WriteString(w, `{"data":{"id":"j1","status":"completed","result":{"trend":"stable"}}}`)
		}
	})

	repo := NewComparisonRepository(api)
	job, err := repo.Start(context.Background(), testSession, model.ComparisonRequest{PatientID: "p1", LabTestIDs: []string{"l1", "l2"}})
	require.NoError(t, err)
	assert.Equal(t, "j1", job.ID)
	assert.Equal(t, "p1", job.PatientID)
	assert.Equal(t, model.ComparisonProcessing, job.Status)

	job, err = repo.Get(context.Background(), testSession, "j1")
	require.NoError(t, err)
	assert.Equal(t, model.ComparisonCompleted, job.Status)
	assert.Equal(t, "stable", job.Result["trend"])
}
