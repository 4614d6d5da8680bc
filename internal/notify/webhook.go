// internal/notify/webhook.go
package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
)

// WebhookSink POSTs alert events as JSON.
type WebhookSink struct {
	url    string
	client *http.Client
}

// NewWebhookSink creates a webhook sink. client may be nil.
func NewWebhookSink(url string, client *http.Client) *WebhookSink {
	if client == nil {
		client = &http.Client{}
	}
	return &WebhookSink{url: url, client: client}
}

func (s *WebhookSink) Name() string { return "webhook" }

// payload is the wire form of an event.
type payload struct {
	ID             string     `json:"id"`
	Event          string     `json:"event"`
	Timestamp      time.Time  `json:"timestamp"`
	Health         string     `json:"health"`
	PreviousHealth string     `json:"previous_health"`
	Reason         string     `json:"reason"`
	RecoveryState  string     `json:"recovery_state"`
	FailureStreak  int        `json:"failure_streak"`
	Outcome        string     `json:"outcome,omitempty"`
	FailingSince   *time.Time `json:"failing_since,omitempty"`
	RemainingBytes int64      `json:"remaining_bytes"`
	RateBytesSec   float64    `json:"rate_bytes_per_sec"`
	Message        string     `json:"message"`
}

func toPayload(e Event) payload {
	p := payload{
		ID:             e.ID.String(),
		Event:          e.Kind.String(),
		Timestamp:      e.At.UTC(),
		Health:         e.Health.String(),
		PreviousHealth: e.PreviousHealth.String(),
		Reason:         e.Reason.String(),
		RecoveryState:  e.Recovery.String(),
		FailureStreak:  e.Streak,
		RemainingBytes: e.RemainingBytes,
		RateBytesSec:   e.RateBytesPerSec,
		Message:        e.Summary(),
	}
	if e.Outcome != 0 {
		p.Outcome = e.Outcome.String()
	}
	if !e.FailingSince.IsZero() {
		t := e.FailingSince.UTC()
		p.FailingSince = &t
	}
	return p
}

func (s *WebhookSink) Send(ctx context.Context, e Event) error {
	if !e.Kind.Alert() {
		return nil
	}

	body, err := json.Marshal(toPayload(e))
	if err != nil {
		return fmt.Errorf("webhook: encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: post: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook: unexpected status %d", resp.StatusCode)
	}
	return nil
}
