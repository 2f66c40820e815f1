package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requires a live server: REDIS_URL=redis://localhost:6379/0 go test ./pkg/messaging/redis
func TestRedisBroker_PublishSubscribe(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	client, err := NewClient(Config{URL: url})
	require.NoError(t, err)
	broker := NewRedisBroker(client, nil, nil)
	defer broker.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msgs, err := broker.Subscribe(ctx, "appointment_events_test")
	require.NoError(t, err)
	require.NoError(t, broker.Publish(ctx, "appointment_events_test", map[string]string{"type": "appointment.created"}))

	select {
	case msg := <-msgs:
		assert.JSONEq(t, `{"type":"appointment.created"}`, string(msg))
	case <-ctx.Done():
		t.Fatal("no message received")
	}
}

func TestNewClient_BadURL(t *testing.T) {
	_, err := NewClient(Config{URL: "://nope"})
	assert.Error(t, err)
}
