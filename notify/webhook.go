package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"pointsrank/core"
)

// WebhookSink posts points updates to configured HTTP endpoints.
// It is synchronous for determinism; keep endpoints fast or wrap with
// buffering if needed.
type WebhookSink struct {
	client    *http.Client
	endpoints []string
}

// WebhookOption configures a WebhookSink.
type WebhookOption func(*WebhookSink)

// WithClient overrides the HTTP client (defaults to 2s timeout).
func WithClient(c *http.Client) WebhookOption {
	return func(s *WebhookSink) {
		if c != nil {
			s.client = c
		}
	}
}

// NewWebhookSink creates a webhook sink.
func NewWebhookSink(endpoints []string, opts ...WebhookOption) *WebhookSink {
	s := &WebhookSink{
		client: &http.Client{Timeout: 2 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.endpoints = append([]string{}, endpoints...)
	return s
}

// OnUpdate posts the update JSON to all endpoints; delivery is best effort.
func (s *WebhookSink) OnUpdate(u core.PointsUpdate) {
	if len(s.endpoints) == 0 {
		return
	}
	body, err := json.Marshal(u)
	if err != nil {
		return
	}
	for _, ep := range s.endpoints {
		req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, ep, bytes.NewReader(body))
		if err != nil {
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := s.client.Do(req)
		if err != nil {
			continue
		}
		resp.Body.Close()
	}
}
