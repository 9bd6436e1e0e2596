// Package repository defines data access interfaces for Alexander Files.
package repository

import (
	"context"
	"time"

	"github.com/prn-tf/alexander-files/internal/domain"
)

// =============================================================================
// Cache Interface
// =============================================================================

// Cache defines the interface for TTL-bearing key/value operations.
// Implemented by Redis for multi-process deployments and in memory otherwise.
type Cache interface {
	// Get retrieves a value by key.
	// Returns ErrCacheMiss if the key doesn't exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with an optional TTL.
	// If ttl is 0, the value doesn't expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key.
	// Returns ErrCacheMiss if the key did not exist.
	Delete(ctx context.Context, key string) error

	// TTL returns the remaining TTL for a key.
	// Returns ErrCacheMiss if the key doesn't exist, -1 if no TTL is set.
	TTL(ctx context.Context, key string) (time.Duration, error)

	// Ping checks that the cache is reachable.
	Ping(ctx context.Context) error
}

// =============================================================================
// Job Queue Interface
// =============================================================================

// JobQueue decouples producers of background work from its consumers.
type JobQueue interface {
	// Enqueue appends a job to the queue.
	Enqueue(ctx context.Context, job domain.Job) error

	// Dequeue blocks up to timeout for the next job.
	// Returns ErrQueueEmpty when nothing arrived in time.
	Dequeue(ctx context.Context, timeout time.Duration) (*domain.Job, error)
}

// =============================================================================
// Common Cache Keys
// =============================================================================

// CacheKey generates cache keys for common scenarios.
type CacheKey struct{}

// Session returns the cache key binding a session token to a user id.
func (CacheKey) Session(token string) string {
	return "auth_" + token
}
