package scheduling

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	k := NewKeyedMutex()
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := k.Lock(ctx, "p1")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Equal(t, 0, k.size())
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	k := NewKeyedMutex()
	ctx := context.Background()

	unlockA, err := k.Lock(ctx, "p1")
	require.NoError(t, err)
	defer unlockA()

	timeout, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	unlockB, err := k.Lock(timeout, "p2")
	require.NoError(t, err)
	unlockB()
	unlockB()
}

func TestKeyedMutexHonorsContext(t *testing.T) {
	k := NewKeyedMutex()
	unlock, err := k.Lock(context.Background(), "p1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = k.Lock(ctx, "p1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	assert.Equal(t, 0, k.size())
}

func TestRedisLockerUnreachable(t *testing.T) {
	l, err := NewRedisLocker(RedisLockerConfig{URL: "redis://127.0.0.1:1/0"}, zerolog.Nop())
	require.NoError(t, err)
	defer l.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := 0; i < 4; i++ {
		_, err = l.Lock(ctx, "p1")
		assert.Error(t, err)
	}
	assert.Contains(t, err.Error(), "unavailable")
}

func TestRedisLockerBadURL(t *testing.T) {
	_, err := NewRedisLocker(RedisLockerConfig{URL: "http://nope"}, zerolog.Nop())
	assert.Error(t, err)
}

// Runs against a real server when CLINIC_TEST_REDIS_URL is set.
func TestRedisLockerExclusive(t *testing.T) {
	url := os.Getenv("CLINIC_TEST_REDIS_URL")
	if url == "" {
		t.Skip("CLINIC_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	l, err := NewRedisLocker(RedisLockerConfig{URL: url, KeyPrefix: "clinic:test-lock:", TTL: 5 * time.Second}, zerolog.Nop())
	require.NoError(t, err)
	defer l.Close()
	require.NoError(t, l.Ping(ctx))

	unlock, err := l.Lock(ctx, "p1")
	require.NoError(t, err)

	short, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = l.Lock(short, "p1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	again, err := l.Lock(ctx, "p1")
	require.NoError(t, err)
	again()
}
