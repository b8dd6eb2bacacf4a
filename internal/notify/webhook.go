package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"blkout/internal/content/models"
	"blkout/pkg/platform/retry"
)

// Endpoint is one configured automation receiver.
type Endpoint struct {
	Platform string
	URL      string
}

const (
	sourceName    = "blkout-content-api"
	retryAttempts = 2
	retryInitial  = 250 * time.Millisecond
	retryMax      = time.Second
)

// webhookPayload is the wire shape automation workflows consume. Receivers
// route on the workflow slug.
type webhookPayload struct {
	Workflow  string         `json:"workflow"`
	Timestamp time.Time      `json:"timestamp"`
	Record    *models.Record `json:"record"`
	Source    string         `json:"source"`
}

// WebhookClient posts lifecycle events to a single endpoint, retrying once on
// failure.
type WebhookClient struct {
	http *http.Client
}

func NewWebhookClient(timeout time.Duration) *WebhookClient {
	return &WebhookClient{http: &http.Client{Timeout: timeout}}
}

// Send posts the event to the endpoint with the default retry budget.
func (c *WebhookClient) Send(ctx context.Context, endpoint Endpoint, event Event) error {
	return c.SendAttempts(ctx, endpoint, event, retryAttempts)
}

// SendAttempts posts the event to the endpoint with an explicit attempt
// budget. The workflow slug is appended to the endpoint URL so each workflow
// gets its own receiver path.
func (c *WebhookClient) SendAttempts(ctx context.Context, endpoint Endpoint, event Event, attempts int) error {
	body, err := json.Marshal(webhookPayload{
		Workflow:  event.WorkflowSlug(),
		Timestamp: event.OccurredAt,
		Record:    event.Record,
		Source:    sourceName,
	})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	url := strings.TrimSuffix(endpoint.URL, "/") + "/" + event.WorkflowSlug()
	return retry.Do(ctx, attempts, retryInitial, retryMax, func() error {
		return c.post(ctx, url, body)
	})
}

func (c *WebhookClient) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Source", sourceName)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}
