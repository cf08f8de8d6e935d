// Package dispatch delivers accepted submissions to downstream consumers:
// an inbox via SMTP, an HTTP webhook, a NATS subject, or logs.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Submission is the cleaned, categorized payload handed to the channels.
// By the time it reaches dispatch it has passed every defense stage.
type Submission struct {
	ID         string         `json:"id"`
	Endpoint   string         `json:"endpoint"`
	Category   string         `json:"category,omitempty"`
	Fields     map[string]any `json:"fields"`
	ReceivedAt time.Time      `json:"received_at"`
}

// Channel defines the interface for submission delivery.
type Channel interface {
	Send(ctx context.Context, sub *Submission) error
	Type() string
}

// WebhookChannel posts submissions to an HTTP endpoint.
type WebhookChannel struct {
	URL     string
	Timeout time.Duration
	client  *http.Client
}

// NewWebhookChannel creates a webhook delivery channel.
func NewWebhookChannel(url string, timeout time.Duration) *WebhookChannel {
	return &WebhookChannel{
		URL:     url,
		Timeout: timeout,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (w *WebhookChannel) Type() string {
	return "webhook"
}

func (w *WebhookChannel) Send(ctx context.Context, sub *Submission) error {
	jsonData, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "FormGate/1.0")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

// LogChannel writes submissions to logs (for testing/debugging and as the
// fallback when no other channel is configured).
type LogChannel struct {
	logger func(format string, v ...interface{})
}

// NewLogChannel creates a log-based delivery channel.
func NewLogChannel(logger func(format string, v ...interface{})) *LogChannel {
	return &LogChannel{logger: logger}
}

func (l *LogChannel) Type() string {
	return "log"
}

func (l *LogChannel) Send(ctx context.Context, sub *Submission) error {
	l.logger("SUBMISSION ACCEPTED: endpoint=%s id=%s category=%s fields=%d",
		sub.Endpoint, sub.ID, sub.Category, len(sub.Fields))
	return nil
}

// MultiChannel fans a submission out to multiple channels. Delivery counts
// as successful when at least one channel accepts it.
type MultiChannel struct {
	channels []Channel
	onError  func(channelType string, err error)
}

// NewMultiChannel creates a fan-out channel. onError is invoked per failed
// channel (for logging and metrics); it may be nil.
func NewMultiChannel(onError func(channelType string, err error), channels ...Channel) *MultiChannel {
	return &MultiChannel{channels: channels, onError: onError}
}

func (m *MultiChannel) Type() string {
	return "multi"
}

func (m *MultiChannel) Send(ctx context.Context, sub *Submission) error {
	var lastErr error
	successCount := 0

	for _, ch := range m.channels {
		if err := ch.Send(ctx, sub); err != nil {
			lastErr = fmt.Errorf("%s channel failed: %w", ch.Type(), err)
			if m.onError != nil {
				m.onError(ch.Type(), err)
			}
		} else {
			successCount++
		}
	}

	if successCount == 0 && len(m.channels) > 0 {
		return fmt.Errorf("all dispatch channels failed: %w", lastErr)
	}

	return nil
}
