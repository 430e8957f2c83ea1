package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookPresenter bridges to the external presentation platform by POSTing
// the notification payload as JSON.
type WebhookPresenter struct {
	url        string
	httpClient *http.Client
}

type webhookPayload struct {
	Device string `json:"device"`
	Notification
}

func NewWebhookPresenter(url string) *WebhookPresenter {
	return &WebhookPresenter{
		url: url,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (p *WebhookPresenter) Present(ctx context.Context, device string, notification Notification) error {
	payload := webhookPayload{
		Device:       device,
		Notification: notification,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("notification webhook error (status %d)", resp.StatusCode)
	}

	return nil
}
