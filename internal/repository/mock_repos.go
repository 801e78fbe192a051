package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/remindhub/reminder-pipeline/internal/domain"
)

// MockEventRepository is a hand-written, in-memory implementation of
// EventRepository used in unit tests. No mock-generation library needed.
type MockEventRepository struct {
	mu     sync.RWMutex
	events map[string]*domain.Event

	// Optional error overrides, set in tests to simulate failure paths.
	CreateErr  error
	GetByIDErr error
	UpdateErr  error
}

func NewMockEventRepository() *MockEventRepository {
	return &MockEventRepository{events: make(map[string]*domain.Event)}
}

func (m *MockEventRepository) Create(_ context.Context, e *domain.Event) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *e
	m.events[e.ID] = &clone
	return nil
}

func (m *MockEventRepository) GetByID(_ context.Context, id string) (*domain.Event, error) {
	if m.GetByIDErr != nil {
		return nil, m.GetByIDErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *e
	return &clone, nil
}

func (m *MockEventRepository) ListByUser(_ context.Context, f domain.ListFilter) ([]*domain.Event, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Event
	for _, e := range m.events {
		if e.UserID == f.UserID {
			clone := *e
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EventTime.Before(result[j].EventTime) })
	return result, len(result), nil
}

func (m *MockEventRepository) Update(_ context.Context, e *domain.Event) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[e.ID]; !ok {
		return domain.ErrNotFound
	}
	clone := *e
	m.events[e.ID] = &clone
	return nil
}

func (m *MockEventRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.events, id)
	return nil
}

// MockDeviceRepository is the in-memory DeviceRepository for unit tests.
type MockDeviceRepository struct {
	mu      sync.RWMutex
	devices map[string]*domain.Device // keyed by userID

	FindErr error
}

func NewMockDeviceRepository() *MockDeviceRepository {
	return &MockDeviceRepository{devices: make(map[string]*domain.Device)}
}

func (m *MockDeviceRepository) FindByUserID(_ context.Context, userID string) (*domain.Device, error) {
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.devices[userID]
	if !ok {
		return nil, domain.ErrDeviceNotFound
	}
	clone := *d
	return &clone, nil
}

func (m *MockDeviceRepository) Upsert(_ context.Context, userID, pushToken string) (*domain.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	if d, ok := m.devices[userID]; ok {
		d.PushToken = pushToken
		d.UpdatedAt = now
		clone := *d
		return &clone, nil
	}
	d := &domain.Device{
		ID:        uuid.New().String(),
		UserID:    userID,
		PushToken: pushToken,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.devices[userID] = d
	clone := *d
	return &clone, nil
}
