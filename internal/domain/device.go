package domain

import "time"

// Device maps a user to their current push delivery target. One row per user:
// registering a new device upserts on the userId unique key, replacing the
// prior token. This pipeline only ever reads it at delivery time.
type Device struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	PushToken string    `json:"pushToken"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RegisterDeviceRequest is the inbound payload for device registration.
type RegisterDeviceRequest struct {
	PushToken string `json:"pushToken"`
}

func (r *RegisterDeviceRequest) Validate() error {
	if r.PushToken == "" {
		return ErrMissingToken
	}
	return nil
}
