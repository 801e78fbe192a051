package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/remindhub/reminder-pipeline/internal/domain"
)

type pgDeviceRepository struct {
	pool *pgxpool.Pool
}

// NewPgDeviceRepository returns a DeviceRepository backed by PostgreSQL.
func NewPgDeviceRepository(pool *pgxpool.Pool) DeviceRepository {
	return &pgDeviceRepository{pool: pool}
}

func (r *pgDeviceRepository) FindByUserID(ctx context.Context, userID string) (*domain.Device, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, push_token, created_at, updated_at
		FROM devices WHERE user_id = $1`, userID)

	var d domain.Device
	err := row.Scan(&d.ID, &d.UserID, &d.PushToken, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrDeviceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find device: %w", err)
	}
	return &d, nil
}

func (r *pgDeviceRepository) Upsert(ctx context.Context, userID, pushToken string) (*domain.Device, error) {
	now := time.Now().UTC()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO devices (id, user_id, push_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (user_id)
		DO UPDATE SET push_token = EXCLUDED.push_token, updated_at = EXCLUDED.updated_at
		RETURNING id, user_id, push_token, created_at, updated_at`,
		uuid.New().String(), userID, pushToken, now)

	var d domain.Device
	if err := row.Scan(&d.ID, &d.UserID, &d.PushToken, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, fmt.Errorf("upsert device: %w", err)
	}
	return &d, nil
}
