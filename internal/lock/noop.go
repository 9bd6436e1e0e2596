package lock

import (
	"context"
	"time"
)

// NoOpLocker is a no-operation locker that always succeeds.
// Use this when a single consumer owns all work.
type NoOpLocker struct{}

// NewNoOpLocker creates a new no-op locker.
func NewNoOpLocker() *NoOpLocker {
	return &NoOpLocker{}
}

// Acquire always succeeds.
func (n *NoOpLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "noop", ctx.Err()
}

// Release always succeeds.
func (n *NoOpLocker) Release(ctx context.Context, key, token string) error {
	return ctx.Err()
}

var _ Locker = (*NoOpLocker)(nil)
