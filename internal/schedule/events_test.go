package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
)

func TestToEvent(t *testing.T) {
	start := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	ev := ToEvent(model.Appointment{
		ID: "a1", StartTime: start, Duration: 45,
		Status:  model.AppointmentStatusCancelled,
		Patient: &model.DisplayInfo{Name: "Ana Lopez"},
	})

	assert.Equal(t, "event-a1", ev.ID)
	assert.Equal(t, "Ana Lopez", ev.Title)
	assert.Equal(t, start.Add(45*time.Minute), ev.EndTime)
	assert.Equal(t, "#ef4444", ev.Color)
	assert.Equal(t, "danger", ev.Badge)

	anon := ToEvent(model.Appointment{ID: "a2", StartTime: start})
	assert.Equal(t, DefaultEventTitle, anon.Title)
	assert.Equal(t, start.Add(30*time.Minute), anon.EndTime)
}

func TestStatusColor_Unknown(t *testing.T) {
	assert.Equal(t, "#9ca3af", StatusColor("archived"))
	assert.Equal(t, "light", StatusBadge("archived"))
}

func TestToEvents_SortsAndSkipsUnplaced(t *testing.T) {
	base := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	events := ToEvents([]model.Appointment{
		{ID: "late", StartTime: base.Add(2 * time.Hour)},
		{ID: "none"},
		{ID: "early", StartTime: base},
	})

	require.Len(t, events, 2)
	assert.Equal(t, "early", events[0].AppointmentID)
	assert.Equal(t, "late", events[1].AppointmentID)
}
