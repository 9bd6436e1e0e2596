package repository

import "errors"

// Repository errors
var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
)

// Cache and queue errors
var (
	// ErrCacheMiss indicates the key was not found in cache.
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable indicates the cache is unavailable.
	ErrCacheUnavailable = errors.New("cache unavailable")

	// ErrQueueEmpty indicates no job arrived before the dequeue timeout.
	ErrQueueEmpty = errors.New("queue empty")

	// ErrQueueUnavailable indicates the queue backend is unavailable.
	ErrQueueUnavailable = errors.New("queue unavailable")
)
