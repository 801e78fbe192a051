package queue

import (
	"context"
	"time"

	"github.com/remindhub/reminder-pipeline/internal/domain"
)

// PendingJob is the producer-side view of a not-yet-claimed job.
// Key is the producer's job key (the event ID); collisions are allowed.
// The store imposes no uniqueness, the scheduler's cleanup-before-enqueue
// sequence is what keeps one live job per event.
type PendingJob struct {
	Key     string
	Payload domain.ReminderJob
}

// Job is a due job leased to exactly one consumer for the duration of a
// single delivery attempt. Attempt counts from 1.
type Job struct {
	ID      string
	Key     string
	Payload domain.ReminderJob
	Attempt int
}

// Store is the delayed job queue this pipeline produces into and consumes
// from. Jobs become claimable only after their delay elapses. Delivery is
// at-least-once: a consumer that crashes mid-attempt loses its lease and the
// job becomes claimable again.
//
// The retry policy (max attempts, exponential backoff) is owned by the store
// and fixed at construction time by the producer, not per job.
type Store interface {
	// Enqueue adds a job that becomes due after delay.
	Enqueue(ctx context.Context, key string, payload domain.ReminderJob, delay time.Duration) error
	// ListPending returns every job not yet claimed by a consumer.
	ListPending(ctx context.Context) ([]PendingJob, error)
	// Remove cancels one pending job with the given key.
	// Returns domain.ErrJobNotFound if no pending job matches (including
	// when the job has already been claimed by a consumer).
	Remove(ctx context.Context, key string) error

	// ClaimDue leases up to limit due jobs to this consumer.
	ClaimDue(ctx context.Context, limit int) ([]Job, error)
	// Complete acknowledges a successful delivery attempt; the job is gone.
	Complete(ctx context.Context, id string) error
	// Fail records a failed attempt. The store either reschedules the job
	// with backoff or, when attempts are exhausted, parks it as terminally
	// failed.
	Fail(ctx context.Context, id string, reason string) error

	// Depths reports (pending, due) job counts for observability.
	Depths(ctx context.Context) (pending, due int, err error)
}

// Options is the producer-configured store policy.
type Options struct {
	// Name isolates this queue from other queues sharing the same storage.
	Name string
	// MaxAttempts bounds delivery attempts per job.
	MaxAttempts int
	// BackoffBase is the first retry delay; attempt N waits base * 2^(N-1).
	BackoffBase time.Duration
	// VisibilityTimeout is how long a claimed job stays invisible before the
	// lease expires and another consumer may claim it.
	VisibilityTimeout time.Duration
}

// DefaultOptions mirrors the queue policy the producers were built against.
func DefaultOptions(name string) Options {
	return Options{
		Name:              name,
		MaxAttempts:       3,
		BackoffBase:       time.Second,
		VisibilityTimeout: time.Minute,
	}
}

// NextRetryDelay computes the backoff before the given attempt is retried.
// attempt counts completed attempts, starting at 1.
func (o Options) NextRetryDelay(attempt int) time.Duration {
	d := o.BackoffBase
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	return d
}
