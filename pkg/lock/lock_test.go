package lock

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotKey(t *testing.T) {
	start := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "lock:slot:c-1:d-1:1710496800", SlotKey("c-1", "d-1", start))
}

func TestLocalLocker_Exclusive(t *testing.T) {
	l := NewLocalLocker()
	release := make(chan struct{})
	entered := make(chan struct{})

	go func() {
		_ = l.WithLock(context.Background(), "k", func(ctx context.Context) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	err := l.WithLock(context.Background(), "k", func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrLockNotAcquired)
	assert.NoError(t, l.WithLock(context.Background(), "other", func(ctx context.Context) error { return nil }))

	close(release)
	assert.Eventually(t, func() bool {
		return l.WithLock(context.Background(), "k", func(ctx context.Context) error { return nil }) == nil
	}, time.Second, 5*time.Millisecond)
}

// Requires a live server: REDIS_URL=redis://localhost:6379/0
func TestRedisLocker_OnlyOneWinner(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	defer client.Close()

	l := NewRedisLocker(client, 2*time.Second, nil)
	key := SlotKey("test", "doctor", time.Now())

	var wins int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_ = l.WithLock(context.Background(), key, func(ctx context.Context) error {
				atomic.AddInt32(&wins, 1)
				time.Sleep(50 * time.Millisecond)
				return nil
			})
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&wins))
	assert.Zero(t, client.Exists(context.Background(), key).Val())
}
