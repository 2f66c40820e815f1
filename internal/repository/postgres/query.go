package postgres

import (
	"fmt"
	"strings"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
)

const appointmentColumns = `
	a.id, a.clinic_id, a.start_time, a.duration, a.status, a.type, a.notes,
	a.created_at, a.updated_at,
	a.patient_id, p.name AS patient_name, p.phone AS patient_phone, p.email AS patient_email,
	a.doctor_id, d.name AS doctor_name, d.phone AS doctor_phone, d.specialty AS doctor_specialty,
	a.nurse_id, n.name AS nurse_name, n.phone AS nurse_phone,
	a.service_id, s.name AS service_name`

const appointmentJoins = `
	FROM appointments a
	LEFT JOIN patients p ON p.id = a.patient_id
	LEFT JOIN doctors d ON d.id = a.doctor_id
	LEFT JOIN nurses n ON n.id = a.nurse_id
	LEFT JOIN services s ON s.id = a.service_id`

// whereBuilder accumulates AND-ed conditions with numbered placeholders.
type whereBuilder struct {
	conds []string
	args  []interface{}
}

func (w *whereBuilder) add(cond string, arg interface{}) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(cond, len(w.args)))
}

func (w *whereBuilder) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func (w *whereBuilder) next() int {
	return len(w.args) + 1
}

// buildListQuery returns the page query, the count query and their shared args.
// The page query takes two extra args: limit and offset.
func buildListQuery(f model.AppointmentFilters) (page, count string, args []interface{}) {
	w := &whereBuilder{}
	w.add("a.clinic_id = $%d", f.ClinicID)
	if f.DoctorID != "" {
		w.add("a.doctor_id = $%d", f.DoctorID)
	}
	if !f.Range.Start.IsZero() {
		w.add("a.start_time >= $%d", f.Range.Start)
	}
	if !f.Range.End.IsZero() {
		w.add("a.start_time <= $%d", f.Range.End)
	}
	switch {
	case f.Status == model.AppointmentStatusScheduled:
		w.args = append(w.args, string(model.AppointmentStatusScheduled), string(model.AppointmentStatusConfirmed))
		w.conds = append(w.conds, fmt.Sprintf("a.status IN ($%d, $%d)", len(w.args)-1, len(w.args)))
	case f.Status != "":
		w.add("a.status = $%d", string(f.Status))
	}

	countFrom := " FROM appointments a"
	if term := strings.TrimSpace(f.Search); term != "" {
		w.add("(p.name ILIKE $%[1]d OR d.name ILIKE $%[1]d OR a.notes ILIKE $%[1]d)", "%"+likeEscaper.Replace(term)+"%")
		countFrom += `
	LEFT JOIN patients p ON p.id = a.patient_id
	LEFT JOIN doctors d ON d.id = a.doctor_id`
	}

	where := w.String()
	n := w.next()
	page = "SELECT" + appointmentColumns + appointmentJoins + where +
		fmt.Sprintf(" ORDER BY a.start_time ASC LIMIT $%d OFFSET $%d", n, n+1)
	count = "SELECT COUNT(*)" + countFrom + where
	return page, count, w.args
}

// likeEscaper makes a search term match literally inside ILIKE.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
