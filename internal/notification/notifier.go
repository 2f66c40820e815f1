package notification

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/goccy/go-json"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/pkg/logger"
	"github.com/jwalitptl/clinic-scheduler/pkg/messaging"
)

const displayLayout = "Monday, January 2, 2006 at 3:04 PM"

// Notifier turns appointment events into patient emails.
type Notifier struct {
	mailer   Mailer
	location *time.Location
	clinic   string
	log      *logger.Logger
}

func NewNotifier(mailer Mailer, clinicName string, loc *time.Location, log *logger.Logger) *Notifier {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Notifier{mailer: mailer, location: loc, clinic: clinicName, log: log}
}

// Render builds the email for an event. It reports false when the event
// warrants no email or the patient has no address.
func (n *Notifier) Render(evt model.AppointmentEvent) (Message, bool) {
	if evt.Patient == nil || evt.Patient.Email == "" {
		return Message{}, false
	}

	when := evt.StartTime.In(n.location).Format(displayLayout)
	with := ""
	if evt.Doctor != nil && evt.Doctor.Name != "" {
		with = " with " + evt.Doctor.Name
	}

	var subject, line string
	switch {
	case evt.Type == model.AppointmentEventCreated:
		subject = "Your appointment is booked"
		line = fmt.Sprintf("Your appointment%s is booked for %s.", with, when)
	case evt.Status == model.AppointmentStatusConfirmed:
		subject = "Your appointment is confirmed"
		line = fmt.Sprintf("Your appointment%s on %s is confirmed.", with, when)
	case evt.Status == model.AppointmentStatusCancelled:
		subject = "Your appointment was cancelled"
		line = fmt.Sprintf("Your appointment%s on %s was cancelled.", with, when)
		if evt.Reason != "" {
			line += " Reason: " + evt.Reason
		}
	default:
		return Message{}, false
	}

	greeting := "Hello"
	if evt.Patient.Name != "" {
		greeting = "Hello " + evt.Patient.Name
	}
	text := fmt.Sprintf("%s,\n\n%s\n\n%s", greeting, line, n.clinic)
	body := fmt.Sprintf("<p>%s,</p><p>%s</p><p>%s</p>",
		html.EscapeString(greeting), html.EscapeString(line), html.EscapeString(n.clinic))

	return Message{To: evt.Patient.Email, Subject: subject, Text: text, HTML: body}, true
}

// Handle is a messaging.Handler for appointment events.
func (n *Notifier) Handle(ctx context.Context, payload []byte) error {
	var evt model.AppointmentEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return fmt.Errorf("failed to decode appointment event: %w", err)
	}

	msg, ok := n.Render(evt)
	if !ok {
		n.log.Debug("no notification for event", "type", evt.Type, "appointment_id", evt.AppointmentID)
		return nil
	}
	if err := n.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("appointment %s: %w", evt.AppointmentID, err)
	}
	n.log.Info("notification sent", "type", evt.Type, "appointment_id", evt.AppointmentID)
	return nil
}

// Run consumes appointment events until ctx ends.
func (n *Notifier) Run(ctx context.Context, broker messaging.Broker) error {
	return messaging.Consume(ctx, broker, model.AppointmentEventsChannel, n.Handle, n.log)
}
