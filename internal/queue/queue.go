// Package queue provides JobQueue implementations.
// The memory queue serves single-process deployments; the Redis queue lets the
// server and a separate worker process share jobs through a Redis list.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/prn-tf/alexander-files/internal/domain"
	"github.com/prn-tf/alexander-files/internal/repository"
)

// =============================================================================
// Memory Queue
// =============================================================================

// Memory is a bounded in-process queue backed by a buffered channel.
type Memory struct {
	jobs chan domain.Job
}

// NewMemory creates a memory queue holding up to size pending jobs.
func NewMemory(size int) *Memory {
	if size < 1 {
		size = 1
	}
	return &Memory{jobs: make(chan domain.Job, size)}
}

// Enqueue appends a job. A full buffer fails immediately so producers on the
// request path never wait for consumers.
func (q *Memory) Enqueue(ctx context.Context, job domain.Job) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrQueueUnavailable, err)
	}
	select {
	case q.jobs <- job:
		return nil
	default:
		return fmt.Errorf("%w: queue full", repository.ErrQueueUnavailable)
	}
}

// Dequeue waits up to timeout for the next job.
func (q *Memory) Dequeue(ctx context.Context, timeout time.Duration) (*domain.Job, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case job := <-q.jobs:
		return &job, nil
	case <-timer.C:
		return nil, repository.ErrQueueEmpty
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len returns the number of pending jobs.
func (q *Memory) Len() int {
	return len(q.jobs)
}

// =============================================================================
// Redis Queue
// =============================================================================

// Redis is a FIFO queue on a Redis list: LPUSH to produce, BRPOP to consume.
// BRPOP hands each job to exactly one consumer.
type Redis struct {
	client redis.UniversalClient
	name   string
}

// NewRedis creates a queue on the Redis list called name.
func NewRedis(client redis.UniversalClient, name string) *Redis {
	return &Redis{client: client, name: name}
}

// Enqueue pushes a JSON-encoded job.
func (q *Redis) Enqueue(ctx context.Context, job domain.Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}

	if err := q.client.LPush(ctx, q.name, payload).Err(); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrQueueUnavailable, err)
	}
	return nil
}

// Dequeue blocks up to timeout for the next job.
func (q *Redis) Dequeue(ctx context.Context, timeout time.Duration) (*domain.Job, error) {
	result, err := q.client.BRPop(ctx, timeout, q.name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrQueueEmpty
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", repository.ErrQueueUnavailable, err)
	}

	// BRPOP replies with [key, value].
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP reply of length %d", len(result))
	}

	var job domain.Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to decode job: %w", err)
	}
	return &job, nil
}

// Len returns the number of pending jobs.
func (q *Redis) Len(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.name).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", repository.ErrQueueUnavailable, err)
	}
	return n, nil
}

// Ensure both queues implement repository.JobQueue.
var (
	_ repository.JobQueue = (*Memory)(nil)
	_ repository.JobQueue = (*Redis)(nil)
)
