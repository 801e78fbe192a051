package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/remindhub/reminder-pipeline/internal/domain"
	"github.com/remindhub/reminder-pipeline/internal/queue"
)

func testJob(eventID string) domain.ReminderJob {
	return domain.ReminderJob{
		EventID:   eventID,
		UserID:    "user-1",
		Title:     "Dentist",
		EventTime: time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
	}
}

// fixedClock returns a controllable time source starting at base.
func fixedClock(base time.Time) (func() time.Time, func(time.Duration)) {
	current := base
	return func() time.Time { return current },
		func(d time.Duration) { current = current.Add(d) }
}

func TestMemoryStore_DelayedJobNotDueUntilDelayElapses(t *testing.T) {
	s := queue.NewMemoryStore(queue.DefaultOptions("reminders"))
	now, advance := fixedClock(time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC))
	s.SetClock(now)
	ctx := context.Background()

	if err := s.Enqueue(ctx, "evt-1", testJob("evt-1"), 45*time.Minute); err != nil {
		t.Fatal(err)
	}

	jobs, err := s.ClaimDue(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 0 {
		t.Fatalf("expected no due jobs before delay elapses, got %d", len(jobs))
	}

	advance(45 * time.Minute)
	jobs, err = s.ClaimDue(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 due job, got %d", len(jobs))
	}
	if jobs[0].Key != "evt-1" || jobs[0].Attempt != 1 {
		t.Fatalf("unexpected claimed job: %+v", jobs[0])
	}
}

func TestMemoryStore_KeyCollisionsAllowed(t *testing.T) {
	// The store enforces no key uniqueness; one-job-per-event is the
	// scheduler's invariant, not the store's.
	s := queue.NewMemoryStore(queue.DefaultOptions("reminders"))
	ctx := context.Background()

	_ = s.Enqueue(ctx, "evt-1", testJob("evt-1"), time.Hour)
	_ = s.Enqueue(ctx, "evt-1", testJob("evt-1"), time.Hour)

	pending, _ := s.ListPending(ctx)
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending jobs for the same key, got %d", len(pending))
	}
}

func TestMemoryStore_RemovePending(t *testing.T) {
	s := queue.NewMemoryStore(queue.DefaultOptions("reminders"))
	ctx := context.Background()

	_ = s.Enqueue(ctx, "evt-1", testJob("evt-1"), time.Hour)
	if err := s.Remove(ctx, "evt-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pending, _ := s.ListPending(ctx)
	if len(pending) != 0 {
		t.Fatalf("expected no pending jobs after remove, got %d", len(pending))
	}

	if err := s.Remove(ctx, "evt-1"); err != domain.ErrJobNotFound {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestMemoryStore_RemoveDoesNotTouchClaimedJobs(t *testing.T) {
	s := queue.NewMemoryStore(queue.DefaultOptions("reminders"))
	now, _ := fixedClock(time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC))
	s.SetClock(now)
	ctx := context.Background()

	_ = s.Enqueue(ctx, "evt-1", testJob("evt-1"), 0)
	if jobs, _ := s.ClaimDue(ctx, 1); len(jobs) != 1 {
		t.Fatal("expected to claim the job")
	}

	// The job is mid-delivery; the producer cannot cancel it any more.
	if err := s.Remove(ctx, "evt-1"); err != domain.ErrJobNotFound {
		t.Fatalf("expected ErrJobNotFound for a claimed job, got %v", err)
	}
}

func TestMemoryStore_FailReschedulesWithBackoff(t *testing.T) {
	opts := queue.DefaultOptions("reminders")
	s := queue.NewMemoryStore(opts)
	base := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	now, advance := fixedClock(base)
	s.SetClock(now)
	ctx := context.Background()

	_ = s.Enqueue(ctx, "evt-1", testJob("evt-1"), 0)
	jobs, _ := s.ClaimDue(ctx, 1)
	if err := s.Fail(ctx, jobs[0].ID, "provider unreachable"); err != nil {
		t.Fatal(err)
	}

	// First retry waits the base backoff (1s); not due immediately.
	if got, _ := s.ClaimDue(ctx, 1); len(got) != 0 {
		t.Fatal("expected job to back off before retry")
	}
	advance(opts.BackoffBase)
	got, _ := s.ClaimDue(ctx, 1)
	if len(got) != 1 {
		t.Fatal("expected job due again after backoff")
	}
	if got[0].Attempt != 2 {
		t.Fatalf("expected attempt=2, got %d", got[0].Attempt)
	}
}

func TestMemoryStore_FailExhaustsAttempts(t *testing.T) {
	opts := queue.DefaultOptions("reminders")
	s := queue.NewMemoryStore(opts)
	base := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	now, advance := fixedClock(base)
	s.SetClock(now)
	ctx := context.Background()

	_ = s.Enqueue(ctx, "evt-1", testJob("evt-1"), 0)

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		jobs, _ := s.ClaimDue(ctx, 1)
		if len(jobs) != 1 {
			t.Fatalf("attempt %d: expected a claimable job", attempt)
		}
		if err := s.Fail(ctx, jobs[0].ID, "still down"); err != nil {
			t.Fatal(err)
		}
		advance(opts.NextRetryDelay(attempt))
	}

	// Retries are exhausted; the job is parked, never claimable again.
	if jobs, _ := s.ClaimDue(ctx, 1); len(jobs) != 0 {
		t.Fatal("expected no claimable jobs after exhausting attempts")
	}
	if s.FailedCount() != 1 {
		t.Fatalf("expected 1 terminally failed job, got %d", s.FailedCount())
	}
}

func TestMemoryStore_ExpiredLeaseIsClaimableAgain(t *testing.T) {
	opts := queue.DefaultOptions("reminders")
	s := queue.NewMemoryStore(opts)
	base := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	now, advance := fixedClock(base)
	s.SetClock(now)
	ctx := context.Background()

	_ = s.Enqueue(ctx, "evt-1", testJob("evt-1"), 0)
	if jobs, _ := s.ClaimDue(ctx, 1); len(jobs) != 1 {
		t.Fatal("expected to claim the job")
	}

	// Consumer crashed: no Complete/Fail. After the visibility timeout the
	// job must be claimable again (at-least-once delivery).
	advance(opts.VisibilityTimeout)
	jobs, _ := s.ClaimDue(ctx, 1)
	if len(jobs) != 1 {
		t.Fatal("expected expired lease to be reclaimed")
	}
	if jobs[0].Attempt != 2 {
		t.Fatalf("expected attempt=2 on reclaim, got %d", jobs[0].Attempt)
	}
}

func TestMemoryStore_Depths(t *testing.T) {
	s := queue.NewMemoryStore(queue.DefaultOptions("reminders"))
	now, _ := fixedClock(time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC))
	s.SetClock(now)
	ctx := context.Background()

	_ = s.Enqueue(ctx, "evt-1", testJob("evt-1"), 0)
	_ = s.Enqueue(ctx, "evt-2", testJob("evt-2"), time.Hour)

	pending, due, err := s.Depths(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if pending != 2 || due != 1 {
		t.Fatalf("unexpected depths: pending=%d due=%d", pending, due)
	}
}

func TestOptions_NextRetryDelay(t *testing.T) {
	opts := queue.Options{BackoffBase: time.Second}
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
	}
	for _, c := range cases {
		if got := opts.NextRetryDelay(c.attempt); got != c.want {
			t.Fatalf("attempt %d: expected %v, got %v", c.attempt, c.want, got)
		}
	}
}
