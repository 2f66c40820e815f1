package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/jwalitptl/clinic-scheduler/pkg/logger"
)

var ErrClosed = errors.New("broker closed")

// Encode renders a message as JSON; byte slices pass through unchanged.
func Encode(message interface{}) ([]byte, error) {
	if raw, ok := message.([]byte); ok {
		return raw, nil
	}
	payload, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}
	return payload, nil
}

// Consume feeds every message on channel to handler until ctx ends or the
// subscription closes. Handler errors are logged and do not stop consumption.
func Consume(ctx context.Context, broker Broker, channel string, handler Handler, log *logger.Logger) error {
	msgs, err := broker.Subscribe(ctx, channel)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}
	if log == nil {
		log = logger.Nop()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := handler(ctx, msg); err != nil {
				log.Error(err, "failed to handle message", "channel", channel)
			}
		}
	}
}
