package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
)

func TestHasPermission(t *testing.T) {
	user := &model.User{Permissions: []string{PermAppointmentsView, PermPatientsView}}

	tests := []struct {
		name     string
		user     *model.User
		required []string
		op       Operator
		want     bool
	}{
		{"and all granted", user, []string{PermAppointmentsView, PermPatientsView}, AND, true},
		{"and one missing", user, []string{PermAppointmentsView, PermAnalysisRun}, AND, false},
		{"or one granted", user, []string{PermCalendarView, PermAppointmentsView}, OR, true},
		{"or none granted", user, []string{PermCalendarView, PermAnalysisRun}, OR, false},
		{"empty requirement", user, nil, AND, true},
		{"empty requirement or", user, []string{}, OR, true},
		{"nil user", nil, []string{PermAppointmentsView}, OR, false},
		{"nil user empty requirement", nil, nil, AND, false},
		{"unknown operator is and", user, []string{PermAppointmentsView, PermAnalysisRun}, Operator("XOR"), false},
		{"wildcard", &model.User{Permissions: []string{Wildcard}}, []string{PermAnalysisRun}, AND, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasPermission(tt.user, tt.required, tt.op))
		})
	}
}

func TestHasAnyHasAll(t *testing.T) {
	user := &model.User{Permissions: []string{PermCalendarView}}

	assert.True(t, HasAny(user, PermAppointmentsView, PermCalendarView))
	assert.False(t, HasAll(user, PermAppointmentsView, PermCalendarView))
}
