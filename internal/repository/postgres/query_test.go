package postgres

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
)

func TestBuildListQuery_AllFilters(t *testing.T) {
	start := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	end := start.Add(24*time.Hour - time.Millisecond)

	page, count, args := buildListQuery(model.AppointmentFilters{
		ClinicID: "c-1",
		DoctorID: "d-1",
		Range:    model.DateRange{Start: start, End: end},
		Status:   model.AppointmentStatusScheduled,
	})

	assert.Contains(t, page, "a.clinic_id = $1 AND a.doctor_id = $2 AND a.start_time >= $3 AND a.start_time <= $4 AND a.status IN ($5, $6)")
	assert.True(t, strings.HasSuffix(page, "LIMIT $7 OFFSET $8"))
	assert.Equal(t, "SELECT COUNT(*) FROM appointments a WHERE a.clinic_id = $1 AND a.doctor_id = $2 AND a.start_time >= $3 AND a.start_time <= $4 AND a.status IN ($5, $6)", count)
	assert.Equal(t, []interface{}{"c-1", "d-1", start, end, "scheduled", "confirmed"}, args)
}

func TestBuildListQuery_ClinicOnly(t *testing.T) {
	page, _, args := buildListQuery(model.AppointmentFilters{ClinicID: "c-1", Status: model.AppointmentStatusCancelled})

	assert.Contains(t, page, "WHERE a.clinic_id = $1 AND a.status = $2")
	assert.Contains(t, page, "LIMIT $3 OFFSET $4")
	assert.Equal(t, []interface{}{"c-1", "cancelled"}, args)
}

func TestBuildListQuery_SearchCountsMatchesOnly(t *testing.T) {
	page, count, args := buildListQuery(model.AppointmentFilters{ClinicID: "c-1", Search: "  50%_off  "})

	cond := "(p.name ILIKE $2 OR d.name ILIKE $2 OR a.notes ILIKE $2)"
	assert.Contains(t, page, "WHERE a.clinic_id = $1 AND "+cond)
	assert.Contains(t, page, "LIMIT $3 OFFSET $4")
	assert.Contains(t, count, "LEFT JOIN patients p ON p.id = a.patient_id")
	assert.Contains(t, count, "LEFT JOIN doctors d ON d.id = a.doctor_id")
	assert.True(t, strings.HasSuffix(count, "WHERE a.clinic_id = $1 AND "+cond))
	assert.Equal(t, []interface{}{"c-1", `%50\%\_off%`}, args)
}

func TestAppointmentRow_ToRaw(t *testing.T) {
	row := appointmentRow{
		ID:          "a-1",
		Status:      "confirmed",
		PatientID:   sql.NullString{String: "p-1", Valid: true},
		PatientName: sql.NullString{String: "Ana Lopez", Valid: true},
		DoctorID:    sql.NullString{String: "d-1", Valid: true},
	}

	raw := row.toRaw()

	assert.True(t, raw.Patient.IsResolved())
	assert.Equal(t, "Ana Lopez", raw.Patient.Display.Name)
	assert.Equal(t, "d-1", raw.Doctor.ID)
	assert.False(t, raw.Doctor.IsResolved())
	assert.True(t, raw.Nurse.IsZero())
}

func TestConfig_DSN(t *testing.T) {
	dsn := Config{Host: "db", Port: 5432, User: "app", Password: "pw", Name: "clinic"}.DSN()
	assert.Equal(t, "host=db port=5432 user=app password=pw dbname=clinic sslmode=disable", dsn)
}
