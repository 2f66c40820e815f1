package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_LeadTime(t *testing.T) {
	gate := NewGate(time.UTC)
	// Wednesday
	now := time.Date(2024, 3, 13, 9, 0, 0, 0, time.UTC)

	ok := gate.ValidateAt(now.Add(31*time.Minute), now)
	require.NotNil(t, ok.Valid)
	assert.True(t, *ok.Valid)
	assert.Equal(t, LevelSuccess, ok.Level)
	assert.Equal(t, MsgValid, ok.Message)

	soon := gate.ValidateAt(now.Add(29*time.Minute), now)
	require.NotNil(t, soon.Valid)
	assert.False(t, *soon.Valid)
	assert.Equal(t, LevelError, soon.Level)
	assert.Equal(t, MsgTooSoon, soon.Message)

	edge := gate.ValidateAt(now.Add(30*time.Minute), now)
	assert.Equal(t, MsgTooSoon, edge.Message)
}

func TestGate_Past(t *testing.T) {
	gate := NewGate(time.UTC)
	now := time.Date(2024, 3, 13, 9, 0, 0, 0, time.UTC)

	for _, at := range []time.Time{now, now.Add(-time.Minute), now.AddDate(-1, 0, 0)} {
		res := gate.ValidateAt(at, now)
		assert.Equal(t, MsgInPast, res.Message)
		assert.True(t, res.Blocking())
	}
}

func TestGate_WeekendWarningIsValid(t *testing.T) {
	gate := NewGate(time.UTC)
	now := time.Date(2024, 3, 13, 9, 0, 0, 0, time.UTC)

	// 2024-03-16 is a Saturday.
	res := gate.Validate("2024-03-16", "10:00", now)

	require.NotNil(t, res.Valid)
	assert.True(t, *res.Valid)
	assert.False(t, res.Blocking())
	assert.Equal(t, LevelWarning, res.Level)
	assert.Equal(t, MsgWeekend, res.Message)
}

func TestGate_MissingParts(t *testing.T) {
	gate := NewGate(time.UTC)
	now := time.Now()

	for _, tc := range [][2]string{{"", "10:00"}, {"2024-03-16", ""}, {" ", " "}} {
		res := gate.Validate(tc[0], tc[1], now)
		assert.Nil(t, res.Valid)
		assert.Empty(t, res.Message)
		assert.True(t, res.Blocking())
	}
}

func TestGate_InvalidComponents(t *testing.T) {
	gate := NewGate(time.UTC)
	now := time.Date(2024, 3, 13, 9, 0, 0, 0, time.UTC)

	for _, tc := range [][2]string{
		{"2024-02-30", "10:00"},
		{"2024-13-01", "10:00"},
		{"2024/03/20", "10:00"},
		{"2024-03-20", "25:00"},
		{"2024-03-20", "ten"},
	} {
		res := gate.Validate(tc[0], tc[1], now)
		require.NotNil(t, res.Valid, tc)
		assert.False(t, *res.Valid, tc)
		assert.Equal(t, MsgInvalidDateTime, res.Message, tc)
	}
}

func TestGate_AssemblesInLocation(t *testing.T) {
	loc := mustLoc(t, "Asia/Kolkata")
	gate := NewGate(loc)

	at, ok := gate.AssembleDateTime("2024-03-20", "09:15")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 20, 9, 15, 0, 0, loc), at)

	// 09:15 in Kolkata is 03:45 UTC; 40 minutes before that must still pass.
	now := time.Date(2024, 3, 20, 3, 5, 0, 0, time.UTC)
	res := gate.Validate("2024-03-20", "09:15", now)
	assert.Equal(t, MsgValid, res.Message)
}

func TestGate_CustomLeadTime(t *testing.T) {
	gate := Gate{MinLeadTime: 2 * time.Hour, Location: time.UTC}
	now := time.Date(2024, 3, 13, 9, 0, 0, 0, time.UTC)

	assert.True(t, gate.ValidateAt(now.Add(90*time.Minute), now).Blocking())
	assert.False(t, gate.ValidateAt(now.Add(3*time.Hour), now).Blocking())
}

func TestGate_TooSoonNamesConfiguredLeadTime(t *testing.T) {
	now := time.Date(2024, 3, 13, 9, 0, 0, 0, time.UTC)

	res := Gate{MinLeadTime: 2 * time.Hour, Location: time.UTC}.ValidateAt(now.Add(90*time.Minute), now)
	assert.Equal(t, "Appointment must be scheduled at least 2 hours in advance", res.Message)

	res = Gate{MinLeadTime: 45 * time.Minute, Location: time.UTC}.ValidateAt(now.Add(40*time.Minute), now)
	assert.Equal(t, "Appointment must be scheduled at least 45 minutes in advance", res.Message)

	assert.Equal(t, "Appointment must be scheduled at least 30 minutes in advance", MsgTooSoon)
	assert.Equal(t, "Appointment must be scheduled at least 1 hour in advance", TooSoonMessage(time.Hour))
	assert.Equal(t, "Appointment must be scheduled at least 90 minutes in advance", TooSoonMessage(90*time.Minute))
}
