package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultExpoBaseURL is Expo's push API endpoint.
const DefaultExpoBaseURL = "https://exp.host/--/api/v2/push/send"

// ExpoProvider delivers push notifications through the Expo push service.
// The base URL is injected from config so tests can point to a local mock.
type ExpoProvider struct {
	baseURL    string
	httpClient *http.Client
}

func NewExpoProvider(baseURL string, timeout time.Duration) *ExpoProvider {
	return &ExpoProvider{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// expoTicket is one entry of the "data" array in Expo's response.
type expoTicket struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type expoResponse struct {
	Data []expoTicket `json:"data"`
}

// Send posts a one-message batch to the Expo endpoint and expects a 200
// response whose first ticket has status "ok". Any transport error,
// unexpected status code, or error ticket is returned as a plain error;
// the worker classifies all of them as transient.
func (p *ExpoProvider) Send(ctx context.Context, msg *PushMessage) (*SendResponse, error) {
	body, err := json.Marshal([]*PushMessage{msg})
	if err != nil {
		return nil, fmt.Errorf("marshal push message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected provider status: %d", resp.StatusCode)
	}

	var expoResp expoResponse
	if err := json.NewDecoder(resp.Body).Decode(&expoResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(expoResp.Data) == 0 {
		return nil, fmt.Errorf("provider returned no ticket")
	}

	ticket := expoResp.Data[0]
	if ticket.Status != "ok" {
		return nil, fmt.Errorf("provider rejected message: %s", ticket.Message)
	}

	return &SendResponse{ID: ticket.ID, Status: ticket.Status}, nil
}

// ValidTarget reports whether token looks like an Expo push token:
// ExponentPushToken[...] or ExpoPushToken[...]. Anything else is handled as
// a dry-run target by the worker.
func (p *ExpoProvider) ValidTarget(token string) bool {
	if !strings.HasSuffix(token, "]") {
		return false
	}
	return strings.HasPrefix(token, "ExponentPushToken[") ||
		strings.HasPrefix(token, "ExpoPushToken[")
}

// compile-time check that ExpoProvider implements Provider
var _ Provider = (*ExpoProvider)(nil)
