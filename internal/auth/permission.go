// Package auth verifies access tokens, tracks sessions and answers capability
// checks. It never issues credentials for end users.
package auth

import "github.com/jwalitptl/clinic-scheduler/internal/model"

// Operator combines several required permissions.
type Operator string

const (
	// AND requires every permission.
	AND Operator = "AND"
	// OR requires at least one.
	OR Operator = "OR"
)

// Wildcard grants every permission.
const Wildcard = "*"

// Permission codes used by the API.
const (
	PermAppointmentsView   = "appointments.view"
	PermAppointmentsCreate = "appointments.create"
	PermAppointmentsUpdate = "appointments.update"
	PermCalendarView       = "calendar.view"
	PermPatientsView       = "patients.view"
	PermDoctorsView        = "doctors.view"
	PermNursesView         = "nurses.view"
	PermServicesView       = "services.view"
	PermAnalysisRun        = "analysis.run"
)

// HasPermission checks the user's capability set. An empty requirement is
// always satisfied; a nil user never is. Unknown operators behave like AND.
func HasPermission(user *model.User, required []string, op Operator) bool {
	if user == nil {
		return false
	}
	if len(required) == 0 {
		return true
	}

	granted := make(map[string]struct{}, len(user.Permissions))
	for _, p := range user.Permissions {
		if p == Wildcard {
			return true
		}
		granted[p] = struct{}{}
	}

	for _, p := range required {
		_, ok := granted[p]
		switch {
		case op == OR && ok:
			return true
		case op != OR && !ok:
			return false
		}
	}
	return op != OR
}

// HasAny is HasPermission with OR.
func HasAny(user *model.User, required ...string) bool {
	return HasPermission(user, required, OR)
}

// HasAll is HasPermission with AND.
func HasAll(user *model.User, required ...string) bool {
	return HasPermission(user, required, AND)
}
