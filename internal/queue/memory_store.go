package queue

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/remindhub/reminder-pipeline/internal/domain"
)

// MemoryStore is a hand-written, in-memory Store used in unit tests.
// It mirrors the PgStore state machine including leases, backoff, and the
// failure of every call made with an already-cancelled context.
// The clock is injectable so tests can make jobs due without sleeping.
type MemoryStore struct {
	mu   sync.Mutex
	opts Options
	now  func() time.Time
	jobs map[string]*memJob

	// Optional error overrides, set in tests to simulate failure paths.
	EnqueueErr error
	ListErr    error
	RemoveErr  error
}

type memJob struct {
	id          string
	key         string
	payload     domain.ReminderJob
	state       string // pending | active | failed
	attempts    int
	runAt       time.Time
	lockedUntil time.Time
	lastError   string
}

func NewMemoryStore(opts Options) *MemoryStore {
	return &MemoryStore{
		opts: opts,
		now:  time.Now,
		jobs: make(map[string]*memJob),
	}
}

// SetClock replaces the time source. Test helper.
func (s *MemoryStore) SetClock(now func() time.Time) { s.now = now }

func (s *MemoryStore) Enqueue(ctx context.Context, key string, payload domain.ReminderJob, delay time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.EnqueueErr != nil {
		return s.EnqueueErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	j := &memJob{
		id:      uuid.New().String(),
		key:     key,
		payload: payload,
		state:   "pending",
		runAt:   s.now().Add(delay),
	}
	s.jobs[j.id] = j
	return nil
}

func (s *MemoryStore) ListPending(ctx context.Context) ([]PendingJob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var pending []PendingJob
	for _, j := range s.jobs {
		if j.state == "pending" {
			pending = append(pending, PendingJob{Key: j.key, Payload: j.payload})
		}
	}
	sort.Slice(pending, func(i, k int) bool { return pending[i].Key < pending[k].Key })
	return pending, nil
}

func (s *MemoryStore) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.RemoveErr != nil {
		return s.RemoveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := false
	for id, j := range s.jobs {
		if j.key == key && j.state == "pending" {
			delete(s.jobs, id)
			removed = true
		}
	}
	if !removed {
		return domain.ErrJobNotFound
	}
	return nil
}

func (s *MemoryStore) ClaimDue(ctx context.Context, limit int) ([]Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()

	var due []*memJob
	for _, j := range s.jobs {
		claimable := (j.state == "pending" && !j.runAt.After(now)) ||
			(j.state == "active" && !j.lockedUntil.After(now))
		if claimable {
			due = append(due, j)
		}
	}
	sort.Slice(due, func(i, k int) bool { return due[i].runAt.Before(due[k].runAt) })
	if len(due) > limit {
		due = due[:limit]
	}

	claimed := make([]Job, 0, len(due))
	for _, j := range due {
		j.state = "active"
		j.attempts++
		j.lockedUntil = now.Add(s.opts.VisibilityTimeout)
		claimed = append(claimed, Job{ID: j.id, Key: j.key, Payload: j.payload, Attempt: j.attempts})
	}
	return claimed, nil
}

func (s *MemoryStore) Complete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
	return nil
}

func (s *MemoryStore) Fail(ctx context.Context, id string, reason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return domain.ErrJobNotFound
	}
	j.lastError = reason
	j.lockedUntil = time.Time{}
	if j.attempts >= s.opts.MaxAttempts {
		j.state = "failed"
		return nil
	}
	j.state = "pending"
	j.runAt = s.now().Add(s.opts.NextRetryDelay(j.attempts))
	return nil
}

func (s *MemoryStore) Depths(ctx context.Context) (pending, due int, err error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for _, j := range s.jobs {
		if j.state == "pending" {
			pending++
			if !j.runAt.After(now) {
				due++
			}
		}
	}
	return pending, due, nil
}

// FailedCount reports terminally failed jobs. Test helper.
func (s *MemoryStore) FailedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, j := range s.jobs {
		if j.state == "failed" {
			n++
		}
	}
	return n
}

// compile-time check that MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
