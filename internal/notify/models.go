// Package notify fans submission lifecycle events out to the community
// automation webhooks (n8n, Zapier and friends). Delivery is best effort:
// moderation decisions commit first, webhook failures never roll them back.
package notify

import (
	"time"

	"blkout/internal/content/models"
)

// EventType names a lifecycle moment of a submission.
type EventType string

const (
	EventCreated   EventType = "created"
	EventApproved  EventType = "approved"
	EventPublished EventType = "published"
	EventRejected  EventType = "rejected"
)

// Event is what services hand to the publisher after a state change commits.
type Event struct {
	Type       EventType
	Record     *models.Record
	OccurredAt time.Time
}

// WorkflowSlug names the downstream automation workflow, e.g. "event-approved"
// or "article-published". Receivers route on this value.
func (e Event) WorkflowSlug() string {
	return string(e.Record.Kind) + "-" + string(e.Type)
}

// Publisher accepts events for asynchronous delivery. Implementations must not
// block the caller.
type Publisher interface {
	Publish(event Event)
}

// NopPublisher drops every event. Used when no webhook endpoints are
// configured and in tests that do not care about notifications.
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}
