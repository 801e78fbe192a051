package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/remindhub/reminder-pipeline/internal/domain"
)

type pgEventRepository struct {
	pool *pgxpool.Pool
}

// NewPgEventRepository returns an EventRepository backed by PostgreSQL.
func NewPgEventRepository(pool *pgxpool.Pool) EventRepository {
	return &pgEventRepository{pool: pool}
}

func (r *pgEventRepository) Create(ctx context.Context, e *domain.Event) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO events
			(id, user_id, title, event_time, reminder_minutes_before, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		e.ID, e.UserID, e.Title, e.EventTime, e.ReminderMinutesBefore, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *pgEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, title, event_time, reminder_minutes_before, created_at, updated_at
		FROM events WHERE id = $1`, id)

	e, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return e, err
}

func (r *pgEventRepository) ListByUser(ctx context.Context, f domain.ListFilter) ([]*domain.Event, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM events WHERE user_id = $1`, f.UserID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	offset := (f.Page - 1) * f.Limit
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, title, event_time, reminder_minutes_before, created_at, updated_at
		FROM events
		WHERE user_id = $1
		ORDER BY event_time ASC
		LIMIT $2 OFFSET $3`, f.UserID, f.Limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, e)
	}
	return events, total, rows.Err()
}

func (r *pgEventRepository) Update(ctx context.Context, e *domain.Event) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE events
		SET title = $1, event_time = $2, reminder_minutes_before = $3, updated_at = $4
		WHERE id = $5`,
		e.Title, e.EventTime, e.ReminderMinutesBefore, e.UpdatedAt, e.ID,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *pgEventRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var e domain.Event
	err := row.Scan(
		&e.ID, &e.UserID, &e.Title, &e.EventTime,
		&e.ReminderMinutesBefore, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
