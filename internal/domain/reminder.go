package domain

import "time"

// ReminderJob is the payload carried by the delayed queue. EventTime is
// serialized as RFC 3339 on the wire (time.Time's JSON form).
type ReminderJob struct {
	EventID   string    `json:"eventId"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	EventTime time.Time `json:"eventTime"`
}

// ScheduleRequest is the scheduler's input, derived from an event write.
type ScheduleRequest struct {
	EventID               string
	UserID                string
	Title                 string
	EventTime             time.Time
	ReminderMinutesBefore int
}

// ScheduleRequestFromEvent builds the scheduler input for an event.
func ScheduleRequestFromEvent(e *Event) ScheduleRequest {
	return ScheduleRequest{
		EventID:               e.ID,
		UserID:                e.UserID,
		Title:                 e.Title,
		EventTime:             e.EventTime,
		ReminderMinutesBefore: e.ReminderMinutesBefore,
	}
}

func (r *ScheduleRequest) Validate() error {
	if r.EventID == "" {
		return ErrMissingEventID
	}
	if r.UserID == "" {
		return ErrMissingUserID
	}
	if r.Title == "" {
		return ErrMissingTitle
	}
	if r.EventTime.IsZero() {
		return ErrMissingTime
	}
	if r.ReminderMinutesBefore < 0 {
		return ErrNegativeLead
	}
	return nil
}

// ReminderTime is the instant the reminder should fire:
// eventTime minus the lead minutes.
func (r *ScheduleRequest) ReminderTime() time.Time {
	return r.EventTime.Add(-time.Duration(r.ReminderMinutesBefore) * time.Minute)
}

// Delay is how long from now until the reminder fires, clamped at zero.
// A reminder time already in the past makes the job immediately due rather
// than rejected.
func (r *ScheduleRequest) Delay(now time.Time) time.Duration {
	d := r.ReminderTime().Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Job returns the queue payload for this request.
func (r *ScheduleRequest) Job() ReminderJob {
	return ReminderJob{
		EventID:   r.EventID,
		UserID:    r.UserID,
		Title:     r.Title,
		EventTime: r.EventTime,
	}
}

// DeliveryOutcome is the tagged result of one push attempt.
type DeliveryOutcome string

const (
	OutcomeDelivered      DeliveryOutcome = "delivered"
	OutcomeNoTarget       DeliveryOutcome = "no_target"
	OutcomeInvalidTarget  DeliveryOutcome = "invalid_target"
	OutcomeTransientError DeliveryOutcome = "transient_error"
)
