// Package lock provides distributed and local locking abstractions.
// For single-node deployments, memory-based locks are used.
// For deployments with several workers sharing a Redis, Redis-based locks are used.
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrNotHeld is returned when releasing a lock that expired or was taken over.
var ErrNotHeld = errors.New("lock not held")

// Locker defines the interface for distributed/local locking.
// Locks are owned by the token returned from Acquire so that a holder whose
// lock expired cannot release a lock acquired by someone else.
type Locker interface {
	// Acquire attempts to acquire a lock.
	// Returns an empty token if the lock is held by another owner.
	// The lock will automatically expire after the specified TTL.
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, error)

	// Release releases a lock acquired with token.
	// Returns ErrNotHeld if the lock is no longer owned by token.
	Release(ctx context.Context, key, token string) error
}

// Lock is a convenience wrapper for a specific lock instance.
type Lock struct {
	locker Locker
	key    string
	token  string
}

// NewLock creates a new Lock instance.
func NewLock(locker Locker, key string) *Lock {
	return &Lock{
		locker: locker,
		key:    key,
	}
}

// Acquire attempts to acquire the lock.
func (l *Lock) Acquire(ctx context.Context, ttl time.Duration) (bool, error) {
	token, err := l.locker.Acquire(ctx, l.key, ttl)
	if err != nil {
		return false, err
	}
	l.token = token
	return token != "", nil
}

// Release releases the lock. Releasing a lock that is not held is a no-op.
func (l *Lock) Release(ctx context.Context) error {
	if l.token == "" {
		return nil
	}
	err := l.locker.Release(ctx, l.key, l.token)
	l.token = ""
	return err
}

// IsHeld returns whether the lock is held.
func (l *Lock) IsHeld() bool {
	return l.token != ""
}

// =============================================================================
// Common Lock Keys
// =============================================================================

// Keys provides lock key generation for common scenarios.
var Keys = lockKeys{}

type lockKeys struct{}

// Thumbnails returns the lock key guarding thumbnail generation for a file.
func (lockKeys) Thumbnails(fileID string) string {
	return "lock:thumbnails:" + fileID
}
