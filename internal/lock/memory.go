package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryLocker implements Locker using in-memory locks.
// The locks are NOT shared across process restarts or multiple instances.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]lockEntry
	now   func() time.Time
}

type lockEntry struct {
	expiresAt time.Time
	token     string
}

// NewMemoryLocker creates a new in-memory locker.
// Expired entries are dropped lazily on the next Acquire of the same key.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		locks: make(map[string]lockEntry),
		now:   time.Now,
	}
}

// Acquire attempts to acquire a lock.
func (m *MemoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if entry, exists := m.locks[key]; exists && now.Before(entry.expiresAt) {
		return "", nil
	}

	token := uuid.NewString()
	m.locks[key] = lockEntry{expiresAt: now.Add(ttl), token: token}
	return token, nil
}

// Release releases a lock.
func (m *MemoryLocker) Release(ctx context.Context, key, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists || entry.token != token {
		return ErrNotHeld
	}
	delete(m.locks, key)
	if m.now().After(entry.expiresAt) {
		return ErrNotHeld
	}
	return nil
}

var _ Locker = (*MemoryLocker)(nil)
