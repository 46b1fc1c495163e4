// utils/alert.go
package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

// AlertClient posts human-readable bounty alerts to a webhook-backed
// messaging channel (Slack-compatible payload). Delivery is best-effort:
// callers fire it in the background and only log failures.
type AlertClient struct {
	WebhookURL string
	Channel    string
	HTTPClient *http.Client
}

// NewAlertClient reads ALERT_WEBHOOK_URL / ALERT_CHANNEL. Returns nil
// when no webhook is configured, which disables alerting.
func NewAlertClient() *AlertClient {
	webhookURL := os.Getenv("ALERT_WEBHOOK_URL")
	if webhookURL == "" {
		log.Println("⚠️  ALERT_WEBHOOK_URL not set — external bounty alerts disabled")
		return nil
	}
	channel := os.Getenv("ALERT_CHANNEL")
	if channel == "" {
		channel = "#bounties"
	}

	return &AlertClient{
		WebhookURL: webhookURL,
		Channel:    channel,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (a *AlertClient) Send(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]string{
		"channel": a.Channel,
		"text":    text,
	})
	if err != nil {
		return fmt.Errorf("failed to encode alert payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create alert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call alert webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("alert webhook returned status %d: %s", resp.StatusCode, string(snippet))
	}
	return nil
}
