package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/alexander-files/internal/repository"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestCache(t *testing.T) (*Cache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewCache(WithClock(clock.Now))
	t.Cleanup(c.Stop)
	return c, clock
}

func TestCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	_, err := c.Get(ctx, "auth_missing")
	assert.ErrorIs(t, err, repository.ErrCacheMiss)

	value := []byte("user-1")
	require.NoError(t, c.Set(ctx, "auth_t1", value, time.Hour))
	value[0] = 'X'

	got, err := c.Get(ctx, "auth_t1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", string(got))
}

func TestCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache(t)

	require.NoError(t, c.Set(ctx, "auth_t1", []byte("u"), 24*time.Hour))

	ttl, err := c.TTL(ctx, "auth_t1")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, ttl)

	clock.Advance(24*time.Hour - time.Second)
	_, err = c.Get(ctx, "auth_t1")
	require.NoError(t, err)

	clock.Advance(time.Second)
	_, err = c.Get(ctx, "auth_t1")
	assert.ErrorIs(t, err, repository.ErrCacheMiss)

	_, err = c.TTL(ctx, "auth_t1")
	assert.ErrorIs(t, err, repository.ErrCacheMiss)

	c.sweep()
	assert.Zero(t, c.Len())
}

func TestCache_NoExpiry(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache(t)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	clock.Advance(365 * 24 * time.Hour)

	ttl, err := c.TTL(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(-1), ttl)
}

func TestCache_Delete(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache(t)

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, c.Delete(ctx, "a"))
	assert.ErrorIs(t, c.Delete(ctx, "a"), repository.ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "b", []byte("1"), time.Minute))
	clock.Advance(time.Minute)
	assert.ErrorIs(t, c.Delete(ctx, "b"), repository.ErrCacheMiss)
}

func TestCache_ConcurrentDeleteSucceedsOnce(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)
	require.NoError(t, c.Set(ctx, "auth_t", []byte("u"), time.Hour))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.Delete(ctx, "auth_t") == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}
