package domain

import "time"

// DefaultReminderLeadMinutes is applied when a create request omits the lead time.
const DefaultReminderLeadMinutes = 15

// Event is the core calendar entity. Each event carries its own reminder
// lead time; the scheduler derives the reminder fire time from the pair.
type Event struct {
	ID                    string    `json:"id"`
	UserID                string    `json:"userId"`
	Title                 string    `json:"title"`
	EventTime             time.Time `json:"eventTime"`
	ReminderMinutesBefore int       `json:"reminderMinutesBefore"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// CreateEventRequest is the inbound payload for event creation.
// ReminderMinutesBefore is optional and defaults to 15 minutes.
type CreateEventRequest struct {
	Title                 string    `json:"title"`
	EventTime             time.Time `json:"eventTime"`
	ReminderMinutesBefore *int      `json:"reminderMinutesBefore,omitempty"`
}

func (r *CreateEventRequest) Validate() error {
	if r.Title == "" {
		return ErrMissingTitle
	}
	if r.EventTime.IsZero() {
		return ErrMissingTime
	}
	if r.ReminderMinutesBefore != nil && *r.ReminderMinutesBefore < 0 {
		return ErrNegativeLead
	}
	return nil
}

// LeadMinutes resolves the effective lead time, applying the default.
func (r *CreateEventRequest) LeadMinutes() int {
	if r.ReminderMinutesBefore == nil {
		return DefaultReminderLeadMinutes
	}
	return *r.ReminderMinutesBefore
}

// UpdateEventRequest carries a partial update; nil fields are left untouched.
type UpdateEventRequest struct {
	Title                 *string    `json:"title,omitempty"`
	EventTime             *time.Time `json:"eventTime,omitempty"`
	ReminderMinutesBefore *int       `json:"reminderMinutesBefore,omitempty"`
}

func (r *UpdateEventRequest) Validate() error {
	if r.Title != nil && *r.Title == "" {
		return ErrMissingTitle
	}
	if r.EventTime != nil && r.EventTime.IsZero() {
		return ErrMissingTime
	}
	if r.ReminderMinutesBefore != nil && *r.ReminderMinutesBefore < 0 {
		return ErrNegativeLead
	}
	return nil
}

// Apply copies the non-nil fields onto e and reports whether any field that
// affects reminder timing (eventTime or the lead minutes) changed. The event
// service reschedules only when this returns true.
func (r *UpdateEventRequest) Apply(e *Event) (timingChanged bool) {
	if r.Title != nil {
		e.Title = *r.Title
	}
	if r.EventTime != nil && !r.EventTime.Equal(e.EventTime) {
		e.EventTime = *r.EventTime
		timingChanged = true
	}
	if r.ReminderMinutesBefore != nil && *r.ReminderMinutesBefore != e.ReminderMinutesBefore {
		e.ReminderMinutesBefore = *r.ReminderMinutesBefore
		timingChanged = true
	}
	return timingChanged
}

// ListFilter holds query parameters for paginated event listing.
type ListFilter struct {
	UserID string
	Page   int
	Limit  int
}
