package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/oszuidwest/zwfm-audioctl/internal/util"
)

// webhookTimeout bounds a single webhook delivery.
const webhookTimeout = 10 * time.Second

// WebhookPayload represents the data sent to webhook endpoints.
type WebhookPayload struct {
	Event             string  `json:"event"`
	Station           string  `json:"station,omitempty"`
	Device            string  `json:"device,omitempty"`
	DeviceID          string  `json:"device_id,omitempty"`
	SilenceDurationMs int64   `json:"silence_duration_ms,omitempty"`
	LevelDB           float64 `json:"level_db,omitempty"`
	Threshold         float64 `json:"threshold,omitempty"`
	Message           string  `json:"message,omitempty"`
	Timestamp         string  `json:"timestamp"`
}

// SendSilenceWebhook notifies the webhook that the monitored device went silent.
func SendSilenceWebhook(ctx context.Context, webhookURL string, a Alert) error {
	return sendWebhook(ctx, webhookURL, &WebhookPayload{
		Event:     "silence_detected",
		Station:   a.Station,
		Device:    a.DeviceName,
		DeviceID:  a.DeviceID,
		LevelDB:   a.LevelDB,
		Threshold: a.ThresholdDB,
		Timestamp: rfc3339(a.At),
	})
}

// SendRecoveryWebhook notifies the webhook that audio returned.
func SendRecoveryWebhook(ctx context.Context, webhookURL string, a Alert) error {
	return sendWebhook(ctx, webhookURL, &WebhookPayload{
		Event:             "silence_recovered",
		Station:           a.Station,
		Device:            a.DeviceName,
		DeviceID:          a.DeviceID,
		SilenceDurationMs: a.Duration.Milliseconds(),
		LevelDB:           a.LevelDB,
		Threshold:         a.ThresholdDB,
		Timestamp:         rfc3339(a.At),
	})
}

// SendTestWebhook sends a test webhook notification.
func SendTestWebhook(ctx context.Context, webhookURL, stationName string) error {
	if webhookURL == "" {
		return fmt.Errorf("webhook URL not configured")
	}

	return sendWebhook(ctx, webhookURL, &WebhookPayload{
		Event:     "test",
		Station:   stationName,
		Message:   "This is a test notification from " + AppName,
		Timestamp: rfc3339(time.Now()),
	})
}

// rfc3339 formats t in UTC for webhook payloads.
func rfc3339(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// sendWebhook delivers a notification to the configured webhook endpoint.
func sendWebhook(ctx context.Context, webhookURL string, payload *WebhookPayload) error {
	if !util.IsConfigured(webhookURL) {
		return nil // Silently skip if not configured
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return util.WrapError("marshal payload", err)
	}

	ctx, cancel := context.WithTimeout(ctx, webhookTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return util.WrapError("create webhook request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return util.WrapError("send webhook request", err)
	}
	defer util.SafeCloseFunc(resp.Body, "webhook response body")()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
