package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
)

const validID = "7b9f3c4e-2d1a-4c8b-9e6f-0a1b2c3d4e5f"

func TestCreate_RejectsMalformedReferences(t *testing.T) {
	// No database: the ids are rejected before any query runs.
	repo := NewAppointmentRepository(nil, nil)
	sess := &model.Session{ClinicID: validID}

	tests := []struct {
		name  string
		apt   model.NewAppointment
		field string
	}{
		{"doctor", model.NewAppointment{PatientID: validID, DoctorID: "abc"}, "doctor"},
		{"patient", model.NewAppointment{PatientID: "p-1", DoctorID: validID}, "patient"},
		{"nurse", model.NewAppointment{PatientID: validID, DoctorID: validID, NurseID: "n"}, "nurse"},
		{"service", model.NewAppointment{PatientID: validID, DoctorID: validID, ServiceID: "x"}, "service"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Create(context.Background(), sess, tt.apt)
			var refErr *repository.ReferenceError
			require.True(t, errors.As(err, &refErr))
			assert.Equal(t, tt.field, refErr.Field)
			assert.Equal(t, "unknown "+tt.field, err.Error())
		})
	}
}

func TestFindConflicts_RejectsMalformedDoctor(t *testing.T) {
	repo := NewAppointmentRepository(nil, nil)
	now := time.Now()

	_, err := repo.FindConflicts(context.Background(), &model.Session{ClinicID: validID}, "abc", now, now.Add(time.Hour))
	var refErr *repository.ReferenceError
	require.True(t, errors.As(err, &refErr))
	assert.Equal(t, "doctor", refErr.Field)
}

func TestReferenceError_ForeignKeyViolation(t *testing.T) {
	fk := func(constraint string) error {
		return fmt.Errorf("exec: %w", &pq.Error{Code: foreignKeyViolation, Constraint: constraint})
	}

	var refErr *repository.ReferenceError
	require.True(t, errors.As(referenceError(fk("appointments_patient_id_fkey")), &refErr))
	assert.Equal(t, "patient", refErr.Field)

	require.True(t, errors.As(referenceError(fk("appointments_doctor_id_fkey")), &refErr))
	assert.Equal(t, "doctor", refErr.Field)

	require.True(t, errors.As(referenceError(fk("custom_fk")), &refErr))
	assert.Equal(t, "reference", refErr.Field)

	assert.Nil(t, referenceError(&pq.Error{Code: "23505"}))
	assert.Nil(t, referenceError(errors.New("boom")))
	assert.Nil(t, referenceError(nil))
}
