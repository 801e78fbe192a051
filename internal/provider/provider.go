package provider

import "context"

// PushMessage is one notification request handed to the push service.
type PushMessage struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
	Sound string            `json:"sound,omitempty"`
}

// SendResponse is the provider's acknowledgement of an accepted message.
type SendResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Provider abstracts delivery to an external push notification service.
// Mocking this interface in tests gives full control over provider behaviour
// without making real HTTP calls.
//
// ValidTarget checks a token against the provider's addressing scheme before
// any network call; the worker treats an invalid target as a terminal
// non-delivery, not a failure.
type Provider interface {
	Send(ctx context.Context, msg *PushMessage) (*SendResponse, error)
	ValidTarget(token string) bool
}
