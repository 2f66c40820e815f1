package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/pkg/debounce"
	"github.com/jwalitptl/clinic-scheduler/pkg/logger"
	"github.com/jwalitptl/clinic-scheduler/pkg/messaging"
)

// Invalidator clears a clinic's cached queries after a burst of appointment
// events settles.
type Invalidator struct {
	caches   []*QueryCache
	debounce *debounce.Debouncer
	log      *logger.Logger
}

func NewInvalidator(wait time.Duration, log *logger.Logger, caches ...*QueryCache) *Invalidator {
	if log == nil {
		log = logger.Nop()
	}
	inv := &Invalidator{caches: caches, log: log}
	inv.debounce = debounce.New(wait, inv.invalidate)
	return inv
}

func (i *Invalidator) invalidate(clinicID string) {
	n := 0
	for _, c := range i.caches {
		n += c.Invalidate(clinicID)
	}
	i.log.Debug("cache invalidated", "clinic_id", clinicID, "entries", n)
}

// Touch schedules invalidation for the clinic.
func (i *Invalidator) Touch(clinicID string) {
	if clinicID == "" {
		return
	}
	i.debounce.Trigger(clinicID)
}

// Handle is a messaging.Handler for appointment events.
func (i *Invalidator) Handle(_ context.Context, payload []byte) error {
	var evt model.AppointmentEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return fmt.Errorf("failed to decode appointment event: %w", err)
	}
	i.Touch(evt.ClinicID)
	return nil
}

// Run consumes appointment events until ctx ends, then fires what is pending.
func (i *Invalidator) Run(ctx context.Context, broker messaging.Broker) error {
	defer i.debounce.Flush()
	return messaging.Consume(ctx, broker, model.AppointmentEventsChannel, i.Handle, i.log)
}

// Pending returns the number of clinics waiting to be invalidated.
func (i *Invalidator) Pending() int {
	return i.debounce.Pending()
}

func (i *Invalidator) Stop() {
	i.debounce.Stop()
}
