package schedule

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
)

func TestNormalize_PopulatedReferences(t *testing.T) {
	payload := `{
		"_id": "apt-1",
		"patient": {"_id": "p-1", "first_name": "Ana", "last_name": "Lopez", "phone": "555-0101"},
		"doctor": {"id": "d-1", "name": "Dr. Kim", "specialization": "Cardiology"},
		"nurse": "n-1",
		"start_time": "2024-03-15T10:00:00Z",
		"duration": 45,
		"status": "confirmed",
		"notes": "bring reports"
	}`
	var raw model.RawAppointment
	require.NoError(t, json.Unmarshal([]byte(payload), &raw))

	apt := Normalize(raw)

	assert.Equal(t, "apt-1", apt.ID)
	assert.Equal(t, "p-1", apt.PatientID)
	assert.Equal(t, "d-1", apt.DoctorID)
	assert.Equal(t, "n-1", apt.NurseID)
	require.NotNil(t, apt.Patient)
	assert.Equal(t, "Ana Lopez", apt.Patient.Name)
	assert.Equal(t, "555-0101", apt.Patient.Phone)
	require.NotNil(t, apt.Doctor)
	assert.Equal(t, "Cardiology", apt.Doctor.Specialty)
	assert.Nil(t, apt.Nurse)
	assert.Nil(t, apt.Service)
	assert.Equal(t, apt.StartTime.Add(45*time.Minute), apt.EndTime)
}

func TestNormalize_FlatRecord(t *testing.T) {
	payload := `{"id":"apt-2","patient_id":"p-2","doctor_id":"d-2","nurse_id":"n-2","date":"2024-03-15T10:00:00Z"}`
	var raw model.RawAppointment
	require.NoError(t, json.Unmarshal([]byte(payload), &raw))

	var apt model.Appointment
	assert.NotPanics(t, func() { apt = Normalize(raw) })

	assert.Equal(t, "p-2", apt.PatientID)
	assert.Equal(t, "d-2", apt.DoctorID)
	assert.Equal(t, "n-2", apt.NurseID)
	assert.Nil(t, apt.Patient)
	assert.Nil(t, apt.Doctor)
	assert.Nil(t, apt.Nurse)
	assert.Equal(t, model.DefaultAppointmentDuration, apt.Duration)
	assert.Equal(t, model.AppointmentStatusScheduled, apt.Status)

	// Normalizing the normalized shape again yields the same record.
	out, err := json.Marshal(apt)
	require.NoError(t, err)
	var again model.RawAppointment
	require.NoError(t, json.Unmarshal(out, &again))
	second := Normalize(again)
	assert.Equal(t, apt.PatientID, second.PatientID)
	assert.Nil(t, second.Patient)
	assert.Nil(t, second.Doctor)
	assert.Nil(t, second.Nurse)
}

func TestNormalize_MissingReferences(t *testing.T) {
	apt := Normalize(model.RawAppointment{ID: "apt-3"})

	assert.Empty(t, apt.PatientID)
	assert.Empty(t, apt.DoctorID)
	assert.Nil(t, apt.Patient)
	assert.True(t, apt.EndTime.IsZero())
}

func TestReference_RejectsNumbers(t *testing.T) {
	var raw model.RawAppointment
	err := json.Unmarshal([]byte(`{"id":"apt-4","patient":42}`), &raw)
	assert.Error(t, err)
}

func TestNormalizeAll_PreservesOrder(t *testing.T) {
	raws := []model.RawAppointment{{ID: "b"}, {ID: "a"}, {ID: "c"}}
	out := NormalizeAll(raws)
	require.Len(t, out, 3)
	assert.Equal(t, "b", out[0].ID)
	assert.Equal(t, "c", out[2].ID)
	assert.NotNil(t, NormalizeAll(nil))
}
