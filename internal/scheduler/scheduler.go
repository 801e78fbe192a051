package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/remindhub/reminder-pipeline/internal/domain"
	"github.com/remindhub/reminder-pipeline/internal/queue"
)

// ReminderScheduler translates an event's timing into a single, uniquely
// keyed delayed job, replacing any previous job for the same event.
//
// The store itself allows key collisions, so the single-job-per-event
// invariant is enforced here: every schedule call removes the prior pending
// job for the event before enqueueing the new one. A prior job that is
// already claimed by a consumer can no longer be removed and may still fire
// with stale parameters; that race is accepted.
type ReminderScheduler struct {
	store       queue.Store
	logger      *zap.Logger
	now         func() time.Time
	onScheduled func()
}

func New(store queue.Store, logger *zap.Logger) *ReminderScheduler {
	return &ReminderScheduler{store: store, logger: logger, now: time.Now}
}

// SetClock replaces the time source. Test helper.
func (s *ReminderScheduler) SetClock(now func() time.Time) { s.now = now }

// SetScheduledHook installs a callback invoked after every successful
// enqueue. Used for metrics.
func (s *ReminderScheduler) SetScheduledHook(fn func()) { s.onScheduled = fn }

// ScheduleReminder validates the request, removes any stale pending job for
// the event, and enqueues a new job due reminderMinutesBefore minutes ahead
// of the event time. A reminder time already in the past produces a zero
// delay: the job becomes due immediately rather than being rejected.
//
// Returns a validation sentinel for caller errors (no store mutation
// happens) or a *domain.SchedulingError when the enqueue itself fails.
// Cleanup failures are logged and discarded; they never abort scheduling.
func (s *ReminderScheduler) ScheduleReminder(ctx context.Context, req domain.ScheduleRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	delay := req.Delay(s.now())

	s.bestEffort("remove stale reminder job", req.EventID, func() error {
		return s.removeExisting(ctx, req.EventID)
	})

	if err := s.store.Enqueue(ctx, req.EventID, req.Job(), delay); err != nil {
		return &domain.SchedulingError{EventID: req.EventID, Cause: err}
	}

	if s.onScheduled != nil {
		s.onScheduled()
	}

	s.logger.Info("reminder scheduled",
		zap.String("event_id", req.EventID),
		zap.Time("reminder_time", req.ReminderTime()),
		zap.Duration("delay", delay),
	)
	return nil
}

// CancelReminder removes any pending job for the event. Used when an event
// is deleted. Missing jobs are not an error: the reminder may already have
// fired or never existed.
func (s *ReminderScheduler) CancelReminder(ctx context.Context, eventID string) {
	s.bestEffort("cancel reminder job", eventID, func() error {
		return s.removeExisting(ctx, eventID)
	})
}

// removeExisting scans the pending jobs for the event's key and removes it.
// The scan mirrors the store contract: removal is by key, discovery is via
// ListPending, and a job that went due between list and remove simply
// surfaces as ErrJobNotFound.
func (s *ReminderScheduler) removeExisting(ctx context.Context, eventID string) error {
	pending, err := s.store.ListPending(ctx)
	if err != nil {
		return err
	}
	for _, p := range pending {
		if p.Key != eventID {
			continue
		}
		if err := s.store.Remove(ctx, eventID); err != nil {
			return err
		}
		s.logger.Info("removed existing reminder job", zap.String("event_id", eventID))
		return nil
	}
	return nil
}

// bestEffort runs fn and downgrades any failure to a warning. Cleanup must
// never block scheduling.
func (s *ReminderScheduler) bestEffort(op, eventID string, fn func() error) {
	if err := fn(); err != nil {
		s.logger.Warn(op+" failed",
			zap.String("event_id", eventID),
			zap.Error(err),
		)
	}
}
