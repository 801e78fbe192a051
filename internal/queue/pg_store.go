package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/remindhub/reminder-pipeline/internal/domain"
)

// PgStore is the PostgreSQL-backed delayed job store. Jobs live in the
// reminder_jobs table with a run_at column; ClaimDue uses
// FOR UPDATE SKIP LOCKED so concurrent consumers never lease the same job.
//
// Job lifecycle:
//
//	pending ──(run_at passes, ClaimDue)──► active ──(Complete)──► row deleted
//	   ▲                                     │
//	   └────(Fail, attempts remain)──────────┤
//	                                         └─(Fail, attempts exhausted)──► failed
//
// An active job whose lease (locked_until) has expired is claimable again,
// which is what makes delivery at-least-once across consumer crashes.
type PgStore struct {
	pool *pgxpool.Pool
	opts Options
}

func NewPgStore(pool *pgxpool.Pool, opts Options) *PgStore {
	return &PgStore{pool: pool, opts: opts}
}

func (s *PgStore) Enqueue(ctx context.Context, key string, payload domain.ReminderJob, delay time.Duration) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal job payload: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO reminder_jobs
			(id, queue, job_key, payload, state, attempts, max_attempts, run_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'pending', 0, $5, NOW() + $6, NOW(), NOW())`,
		uuid.New().String(), s.opts.Name, key, body, s.opts.MaxAttempts, delay,
	)
	if err != nil {
		return fmt.Errorf("enqueue job %s: %w", key, err)
	}
	return nil
}

func (s *PgStore) ListPending(ctx context.Context) ([]PendingJob, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT job_key, payload
		FROM reminder_jobs
		WHERE queue = $1 AND state = 'pending'
		ORDER BY run_at`, s.opts.Name)
	if err != nil {
		return nil, fmt.Errorf("list pending jobs: %w", err)
	}
	defer rows.Close()

	var pending []PendingJob
	for rows.Next() {
		var (
			p    PendingJob
			body []byte
		)
		if err := rows.Scan(&p.Key, &body); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(body, &p.Payload); err != nil {
			return nil, fmt.Errorf("decode payload for job %s: %w", p.Key, err)
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

func (s *PgStore) Remove(ctx context.Context, key string) error {
	// Only pending jobs are removable; a job already claimed by a consumer
	// is mid-delivery and out of the producer's reach (the accepted
	// reschedule-vs-due race).
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM reminder_jobs
		WHERE queue = $1 AND job_key = $2 AND state = 'pending'`,
		s.opts.Name, key)
	if err != nil {
		return fmt.Errorf("remove job %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

func (s *PgStore) ClaimDue(ctx context.Context, limit int) ([]Job, error) {
	rows, err := s.pool.Query(ctx, `
		UPDATE reminder_jobs
		SET state = 'active',
		    attempts = attempts + 1,
		    locked_until = NOW() + $3,
		    updated_at = NOW()
		WHERE id IN (
			SELECT id FROM reminder_jobs
			WHERE queue = $1
			  AND (
			        (state = 'pending' AND run_at <= NOW())
			     OR (state = 'active' AND locked_until <= NOW())
			  )
			ORDER BY run_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, job_key, payload, attempts`,
		s.opts.Name, limit, s.opts.VisibilityTimeout)
	if err != nil {
		return nil, fmt.Errorf("claim due jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var (
			j    Job
			body []byte
		)
		if err := rows.Scan(&j.ID, &j.Key, &body, &j.Attempt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(body, &j.Payload); err != nil {
			return nil, fmt.Errorf("decode payload for job %s: %w", j.Key, err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (s *PgStore) Complete(ctx context.Context, id string) error {
	// removeOnComplete: delivered jobs leave no row behind.
	_, err := s.pool.Exec(ctx,
		`DELETE FROM reminder_jobs WHERE id = $1`, id)
	return err
}

func (s *PgStore) Fail(ctx context.Context, id string, reason string) error {
	// Exhausted jobs are parked as failed for operator inspection; everything
	// else goes back to pending with exponential backoff.
	tag, err := s.pool.Exec(ctx, `
		UPDATE reminder_jobs
		SET state = 'failed', last_error = $2, locked_until = NULL, updated_at = NOW()
		WHERE id = $1 AND attempts >= max_attempts`, id, reason)
	if err != nil {
		return fmt.Errorf("fail job %s: %w", id, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// $2 needs the cast: an uncast param is typed against POWER's double
	// precision, and timestamptz + float8 has no operator.
	_, err = s.pool.Exec(ctx, `
		UPDATE reminder_jobs
		SET state = 'pending',
		    run_at = NOW() + ($2::interval * POWER(2, attempts - 1)),
		    last_error = $3,
		    locked_until = NULL,
		    updated_at = NOW()
		WHERE id = $1`, id, s.opts.BackoffBase, reason)
	if err != nil {
		return fmt.Errorf("reschedule job %s: %w", id, err)
	}
	return nil
}

func (s *PgStore) Depths(ctx context.Context) (pending, due int, err error) {
	err = s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE run_at <= NOW())
		FROM reminder_jobs
		WHERE queue = $1 AND state = 'pending'`, s.opts.Name).Scan(&pending, &due)
	if err != nil {
		return 0, 0, fmt.Errorf("queue depths: %w", err)
	}
	return pending, due, nil
}

// compile-time check that PgStore implements Store
var _ Store = (*PgStore)(nil)
