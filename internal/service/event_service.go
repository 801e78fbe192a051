package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/remindhub/reminder-pipeline/internal/domain"
	"github.com/remindhub/reminder-pipeline/internal/repository"
	"github.com/remindhub/reminder-pipeline/internal/scheduler"
)

// EventService coordinates the event repository and the reminder scheduler.
// All business rules (lead-time defaults, the reschedule-only-on-timing-change
// policy, the decoupling of event writes from scheduling failures) live here.
// HTTP handlers depend on this service, not on the scheduler directly.
type EventService struct {
	events  repository.EventRepository
	devices repository.DeviceRepository
	sched   *scheduler.ReminderScheduler
	logger  *zap.Logger
}

func NewEventService(
	events repository.EventRepository,
	devices repository.DeviceRepository,
	sched *scheduler.ReminderScheduler,
	logger *zap.Logger,
) *EventService {
	return &EventService{events: events, devices: devices, sched: sched, logger: logger}
}

// CreateEvent validates, persists, and schedules the reminder for a new event.
//
// The event write commits before scheduling runs; an enqueue failure is
// logged and absorbed so it can never roll back (or appear to roll back) the
// already-committed event. The user-visible contract is: the event exists,
// the reminder is best-effort.
func (s *EventService) CreateEvent(ctx context.Context, userID string, req domain.CreateEventRequest) (*domain.Event, error) {
	if userID == "" {
		return nil, domain.ErrMissingUserID
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	e := &domain.Event{
		ID:                    uuid.New().String(),
		UserID:                userID,
		Title:                 req.Title,
		EventTime:             req.EventTime,
		ReminderMinutesBefore: req.LeadMinutes(),
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := s.events.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("persist event: %w", err)
	}

	s.scheduleFor(ctx, e)
	return e, nil
}

// UpdateEvent applies a partial update and reschedules the reminder only
// when a timing-relevant field (eventTime or reminderMinutesBefore) changed.
// A pure title edit keeps the existing job; the occasional stale title in a
// reminder is preferred over churning the queue on every save.
func (s *EventService) UpdateEvent(ctx context.Context, id string, req domain.UpdateEventRequest) (*domain.Event, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	timingChanged := req.Apply(e)
	e.UpdatedAt = time.Now().UTC()

	if err := s.events.Update(ctx, e); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}

	if timingChanged {
		s.scheduleFor(ctx, e)
	}
	return e, nil
}

// DeleteEvent removes the event and cancels its pending reminder job.
// The cancel is best-effort: a job already claimed by a worker may still
// fire once for the deleted event.
func (s *EventService) DeleteEvent(ctx context.Context, id string) error {
	if err := s.events.Delete(ctx, id); err != nil {
		return err
	}
	s.sched.CancelReminder(ctx, id)
	return nil
}

func (s *EventService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	return s.events.GetByID(ctx, id)
}

func (s *EventService) ListEvents(ctx context.Context, filter domain.ListFilter) ([]*domain.Event, int, error) {
	if filter.UserID == "" {
		return nil, 0, domain.ErrMissingUserID
	}
	return s.events.ListByUser(ctx, filter)
}

// RegisterDevice stores (or replaces) the user's push target.
func (s *EventService) RegisterDevice(ctx context.Context, userID string, req domain.RegisterDeviceRequest) (*domain.Device, error) {
	if userID == "" {
		return nil, domain.ErrMissingUserID
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.devices.Upsert(ctx, userID, req.PushToken)
}

// scheduleFor hands the event to the reminder scheduler. Scheduling errors
// are logged, never returned.
func (s *EventService) scheduleFor(ctx context.Context, e *domain.Event) {
	if err := s.sched.ScheduleReminder(ctx, domain.ScheduleRequestFromEvent(e)); err != nil {
		s.logger.Error("reminder scheduling failed, event is committed without a reminder",
			zap.String("event_id", e.ID),
			zap.Error(err),
		)
	}
}
