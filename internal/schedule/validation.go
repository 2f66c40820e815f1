package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultMinLeadTime is how far ahead a new appointment must start.
const DefaultMinLeadTime = 30 * time.Minute

// Gate messages.
const (
	MsgInvalidDateTime = "Invalid date or time"
	MsgInPast          = "Appointment time cannot be in the past"
	MsgWeekend         = "Weekend appointment - please confirm availability"
	MsgValid           = "Valid appointment time"
)

// MsgTooSoon is the lead time message for DefaultMinLeadTime.
var MsgTooSoon = TooSoonMessage(DefaultMinLeadTime)

// TooSoonMessage names the lead time in whole hours when it divides evenly,
// in minutes otherwise.
func TooSoonMessage(lead time.Duration) string {
	var amount string
	switch {
	case lead >= time.Hour && lead%time.Hour == 0:
		amount = plural(int(lead/time.Hour), "hour")
	default:
		amount = plural(int(lead/time.Minute), "minute")
	}
	return fmt.Sprintf("Appointment must be scheduled at least %s in advance", amount)
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

type Level string

const (
	LevelNone    Level = ""
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelSuccess Level = "success"
)

// Result is the gate outcome. Valid is nil while the form is incomplete.
type Result struct {
	Valid   *bool     `json:"valid"`
	Level   Level     `json:"level,omitempty"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at,omitempty"`
}

// Blocking reports whether submission must be refused.
func (r Result) Blocking() bool {
	return r.Valid == nil || !*r.Valid
}

// Gate validates a requested appointment time before submission.
type Gate struct {
	MinLeadTime time.Duration
	Location    *time.Location
}

// NewGate returns a gate with the default lead time in loc.
func NewGate(loc *time.Location) Gate {
	if loc == nil {
		loc = time.Local
	}
	return Gate{MinLeadTime: DefaultMinLeadTime, Location: loc}
}

// Validate assembles the time from separate date (YYYY-MM-DD) and clock
// (HH:MM) components in the gate's location and applies the rules in order.
func (g Gate) Validate(date, clock string, now time.Time) Result {
	date, clock = strings.TrimSpace(date), strings.TrimSpace(clock)
	if date == "" || clock == "" {
		return Result{}
	}
	at, ok := g.assemble(date, clock)
	if !ok {
		return invalid(MsgInvalidDateTime, time.Time{})
	}
	return g.ValidateAt(at, now)
}

// ValidateAt applies the rules to an already assembled time.
func (g Gate) ValidateAt(at, now time.Time) Result {
	lead := g.MinLeadTime
	if lead <= 0 {
		lead = DefaultMinLeadTime
	}

	switch {
	case !at.After(now):
		return invalid(MsgInPast, at)
	case !at.After(now.Add(lead)):
		return invalid(TooSoonMessage(lead), at)
	case isWeekend(at):
		return valid(LevelWarning, MsgWeekend, at)
	default:
		return valid(LevelSuccess, MsgValid, at)
	}
}

func (g Gate) assemble(date, clock string) (time.Time, bool) {
	dp := strings.Split(date, "-")
	tp := strings.Split(clock, ":")
	if len(dp) != 3 || len(tp) < 2 {
		return time.Time{}, false
	}

	nums := make([]int, 0, 5)
	for _, s := range []string{dp[0], dp[1], dp[2], tp[0], tp[1]} {
		n, err := strconv.Atoi(s)
		if err != nil {
			return time.Time{}, false
		}
		nums = append(nums, n)
	}
	y, mo, d, h, mi := nums[0], nums[1], nums[2], nums[3], nums[4]
	if mo < 1 || mo > 12 || d < 1 || d > 31 || h < 0 || h > 23 || mi < 0 || mi > 59 {
		return time.Time{}, false
	}

	loc := g.Location
	if loc == nil {
		loc = time.Local
	}
	at := time.Date(y, time.Month(mo), d, h, mi, 0, 0, loc)
	// time.Date normalizes Feb 30 into March; reject instead.
	if at.Day() != d {
		return time.Time{}, false
	}
	return at, true
}

// AssembleDateTime exposes the component-wise assembly used by the gate.
func (g Gate) AssembleDateTime(date, clock string) (time.Time, bool) {
	return g.assemble(strings.TrimSpace(date), strings.TrimSpace(clock))
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func valid(level Level, msg string, at time.Time) Result {
	v := true
	return Result{Valid: &v, Level: level, Message: msg, At: at}
}

func invalid(msg string, at time.Time) Result {
	v := false
	return Result{Valid: &v, Level: LevelError, Message: msg, At: at}
}
