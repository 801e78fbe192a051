package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/remindhub/reminder-pipeline/internal/domain"
)

func TestScheduleRequest_Validate(t *testing.T) {
	valid := domain.ScheduleRequest{
		EventID:               "evt-1",
		UserID:                "user-1",
		Title:                 "Standup",
		EventTime:             time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		ReminderMinutesBefore: 15,
	}

	t.Run("valid request passes", func(t *testing.T) {
		if err := valid.Validate(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("missing event id", func(t *testing.T) {
		r := valid
		r.EventID = ""
		if err := r.Validate(); err != domain.ErrMissingEventID {
			t.Fatalf("expected ErrMissingEventID, got %v", err)
		}
	})

	t.Run("missing user id", func(t *testing.T) {
		r := valid
		r.UserID = ""
		if err := r.Validate(); err != domain.ErrMissingUserID {
			t.Fatalf("expected ErrMissingUserID, got %v", err)
		}
	})

	t.Run("missing title", func(t *testing.T) {
		r := valid
		r.Title = ""
		if err := r.Validate(); err != domain.ErrMissingTitle {
			t.Fatalf("expected ErrMissingTitle, got %v", err)
		}
	})

	t.Run("zero event time", func(t *testing.T) {
		r := valid
		r.EventTime = time.Time{}
		if err := r.Validate(); err != domain.ErrMissingTime {
			t.Fatalf("expected ErrMissingTime, got %v", err)
		}
	})

	t.Run("negative lead minutes", func(t *testing.T) {
		r := valid
		r.ReminderMinutesBefore = -1
		if err := r.Validate(); err != domain.ErrNegativeLead {
			t.Fatalf("expected ErrNegativeLead, got %v", err)
		}
	})

	t.Run("zero lead minutes passes", func(t *testing.T) {
		r := valid
		r.ReminderMinutesBefore = 0
		if err := r.Validate(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})
}

func TestScheduleRequest_Delay(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	base := domain.ScheduleRequest{
		EventID:   "evt-1",
		UserID:    "user-1",
		Title:     "Standup",
		EventTime: now.Add(time.Hour),
	}

	t.Run("reminder time is event time minus lead", func(t *testing.T) {
		r := base
		r.ReminderMinutesBefore = 15
		want := now.Add(45 * time.Minute)
		if got := r.ReminderTime(); !got.Equal(want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
	})

	t.Run("future reminder yields full delay", func(t *testing.T) {
		r := base
		r.ReminderMinutesBefore = 15
		if got := r.Delay(now); got != 45*time.Minute {
			t.Fatalf("expected 45m, got %v", got)
		}
	})

	t.Run("zero lead means delay until the event itself", func(t *testing.T) {
		r := base
		r.ReminderMinutesBefore = 0
		if got := r.Delay(now); got != time.Hour {
			t.Fatalf("expected 1h, got %v", got)
		}
	})

	t.Run("past reminder time clamps to zero", func(t *testing.T) {
		r := base
		r.ReminderMinutesBefore = 90
		if got := r.Delay(now); got != 0 {
			t.Fatalf("expected 0, got %v", got)
		}
	})

	t.Run("lead exactly at now clamps to zero", func(t *testing.T) {
		r := base
		r.ReminderMinutesBefore = 60
		if got := r.Delay(now); got != 0 {
			t.Fatalf("expected 0, got %v", got)
		}
	})
}

func TestCreateEventRequest_LeadMinutes(t *testing.T) {
	t.Run("nil lead defaults to 15", func(t *testing.T) {
		r := domain.CreateEventRequest{}
		if got := r.LeadMinutes(); got != domain.DefaultReminderLeadMinutes {
			t.Fatalf("expected %d, got %d", domain.DefaultReminderLeadMinutes, got)
		}
	})

	t.Run("explicit lead wins", func(t *testing.T) {
		lead := 30
		r := domain.CreateEventRequest{ReminderMinutesBefore: &lead}
		if got := r.LeadMinutes(); got != 30 {
			t.Fatalf("expected 30, got %d", got)
		}
	})

	t.Run("explicit zero lead is kept", func(t *testing.T) {
		lead := 0
		r := domain.CreateEventRequest{ReminderMinutesBefore: &lead}
		if got := r.LeadMinutes(); got != 0 {
			t.Fatalf("expected 0, got %d", got)
		}
	})
}

func TestUpdateEventRequest_Apply(t *testing.T) {
	baseTime := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	newEvent := func() *domain.Event {
		return &domain.Event{
			ID:                    "evt-1",
			UserID:                "user-1",
			Title:                 "Standup",
			EventTime:             baseTime,
			ReminderMinutesBefore: 15,
		}
	}

	t.Run("title only does not change timing", func(t *testing.T) {
		e := newEvent()
		title := "Retro"
		r := domain.UpdateEventRequest{Title: &title}
		if changed := r.Apply(e); changed {
			t.Fatal("expected timingChanged=false")
		}
		if e.Title != "Retro" {
			t.Fatalf("title not applied, got %q", e.Title)
		}
	})

	t.Run("new event time changes timing", func(t *testing.T) {
		e := newEvent()
		moved := baseTime.Add(time.Hour)
		r := domain.UpdateEventRequest{EventTime: &moved}
		if changed := r.Apply(e); !changed {
			t.Fatal("expected timingChanged=true")
		}
		if !e.EventTime.Equal(moved) {
			t.Fatalf("event time not applied, got %v", e.EventTime)
		}
	})

	t.Run("same event time does not change timing", func(t *testing.T) {
		e := newEvent()
		same := baseTime
		r := domain.UpdateEventRequest{EventTime: &same}
		if changed := r.Apply(e); changed {
			t.Fatal("expected timingChanged=false for identical time")
		}
	})

	t.Run("new lead changes timing", func(t *testing.T) {
		e := newEvent()
		lead := 30
		r := domain.UpdateEventRequest{ReminderMinutesBefore: &lead}
		if changed := r.Apply(e); !changed {
			t.Fatal("expected timingChanged=true")
		}
		if e.ReminderMinutesBefore != 30 {
			t.Fatalf("lead not applied, got %d", e.ReminderMinutesBefore)
		}
	})

	t.Run("same lead does not change timing", func(t *testing.T) {
		e := newEvent()
		lead := 15
		r := domain.UpdateEventRequest{ReminderMinutesBefore: &lead}
		if changed := r.Apply(e); changed {
			t.Fatal("expected timingChanged=false for identical lead")
		}
	})
}

func TestTransientError(t *testing.T) {
	cause := errors.New("connection reset")
	err := &domain.TransientError{Op: "push send", Cause: cause}

	if !domain.IsTransient(err) {
		t.Fatal("expected IsTransient to report true")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to see the cause through Unwrap")
	}
	if domain.IsTransient(cause) {
		t.Fatal("bare cause must not be transient")
	}
	if domain.IsTransient(domain.ErrDeviceNotFound) {
		t.Fatal("ErrDeviceNotFound must not be transient")
	}
}
