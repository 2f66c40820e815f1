package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/pkg/messaging"
)

func TestQueryCache_ScopedByClinic(t *testing.T) {
	c := NewQueryCache("test", time.Minute, nil)
	c.Set("c1", Key("list", "today"), 1)
	c.Set("c1", Key("list", "week"), 2)
	c.Set("c2", Key("list", "today"), 3)

	v, ok := c.Get("c2", Key("list", "today"))
	require.True(t, ok)
	assert.Equal(t, 3, v)

	assert.Equal(t, 2, c.Invalidate("c1"))
	_, ok = c.Get("c1", Key("list", "today"))
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())
}

func TestRemember(t *testing.T) {
	c := NewQueryCache("test", time.Minute, nil)
	calls := 0
	load := func() ([]string, error) {
		calls++
		return []string{"a"}, nil
	}

	for i := 0; i < 3; i++ {
		v, err := Remember(c, "c1", "k", load)
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, v)
	}
	assert.Equal(t, 1, calls)

	_, err := Remember(c, "c1", "bad", func() (int, error) { return 0, errors.New("boom") })
	assert.Error(t, err)
	_, ok := c.Get("c1", "bad")
	assert.False(t, ok)

	v, err := Remember[int](nil, "c1", "k", func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestInvalidator_CoalescesEvents(t *testing.T) {
	c := NewQueryCache("test", time.Minute, nil)
	c.Set("c1", "k", 1)
	c.Set("c2", "k", 2)

	inv := NewInvalidator(20*time.Millisecond, nil, c)
	defer inv.Stop()

	broker := messaging.NewMemoryBroker()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- inv.Run(ctx, broker) }()

	require.Eventually(t, func() bool {
		err := broker.Publish(ctx, model.AppointmentEventsChannel, model.AppointmentEvent{ClinicID: "c1"})
		return err == nil && inv.Pending() == 1
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		_, ok := c.Get("c1", "k")
		return !ok
	}, time.Second, 5*time.Millisecond)

	_, ok := c.Get("c2", "k")
	assert.True(t, ok)

	cancel()
	assert.NoError(t, <-done)
}

func TestInvalidator_RejectsGarbage(t *testing.T) {
	inv := NewInvalidator(time.Millisecond, nil)
	defer inv.Stop()
	assert.Error(t, inv.Handle(context.Background(), []byte("not json")))
}
