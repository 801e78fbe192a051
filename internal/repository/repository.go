package repository

import (
	"context"

	"github.com/remindhub/reminder-pipeline/internal/domain"
)

// EventRepository defines all persistence operations for events.
// The pgx implementation is in pg_event_repo.go.
// Tests use a hand-written mock (mock_repos.go).
type EventRepository interface {
	Create(ctx context.Context, e *domain.Event) error
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	ListByUser(ctx context.Context, filter domain.ListFilter) ([]*domain.Event, int, error)
	Update(ctx context.Context, e *domain.Event) error
	Delete(ctx context.Context, id string) error
}

// DeviceRepository is the device registry: one push target per user,
// replaced wholesale on re-registration.
type DeviceRepository interface {
	FindByUserID(ctx context.Context, userID string) (*domain.Device, error)
	Upsert(ctx context.Context, userID, pushToken string) (*domain.Device, error)
}
