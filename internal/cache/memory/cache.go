// Package memory provides an in-memory cache implementation.
// This is suitable for single-process deployments where Redis is not available.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/prn-tf/alexander-files/internal/repository"
)

// Cache implements repository.Cache using in-memory storage.
// Sessions stored here do not survive a restart and are not shared between processes.
type Cache struct {
	mu      sync.RWMutex
	items   map[string]entry
	now     func() time.Time
	stopCh  chan struct{}
	stopped bool
}

type entry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// NewCache creates a new in-memory cache and starts its sweeper.
func NewCache(opts ...Option) *Cache {
	c := &Cache{
		items:  make(map[string]entry),
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	go c.sweepLoop(time.Minute)

	return c
}

func (c *Cache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

// sweep drops expired entries.
func (c *Cache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, e := range c.items {
		if e.expired(now) {
			delete(c.items, key)
		}
	}
}

// Stop stops the sweeper goroutine.
func (c *Cache) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.stopped {
		close(c.stopCh)
		c.stopped = true
	}
}

// Get retrieves a value by key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	if !ok || e.expired(c.now()) {
		return nil, repository.ErrCacheMiss
	}

	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set stores a value. A non-positive ttl stores it without expiry.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: make([]byte, len(value))}
	copy(e.value, value)

	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.items[key] = e
	return nil
}

// Delete removes a live key, reporting ErrCacheMiss when there was none.
// Check and removal happen under one lock so concurrent deletes of the
// same key succeed exactly once.
func (c *Cache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		return repository.ErrCacheMiss
	}
	delete(c.items, key)

	if e.expired(c.now()) {
		return repository.ErrCacheMiss
	}
	return nil
}

// TTL returns the remaining lifetime of a key, or -1 if it never expires.
func (c *Cache) TTL(ctx context.Context, key string) (time.Duration, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	e, ok := c.items[key]
	if !ok || e.expired(now) {
		return 0, repository.ErrCacheMiss
	}
	if e.expiresAt.IsZero() {
		return -1, nil
	}
	return e.expiresAt.Sub(now), nil
}

// Ping always succeeds for the in-memory cache.
func (c *Cache) Ping(ctx context.Context) error {
	return nil
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Ensure Cache implements repository.Cache.
var _ repository.Cache = (*Cache)(nil)
