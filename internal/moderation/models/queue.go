// Package models defines the moderation queue projection.
package models

import (
	"time"

	content "blkout/internal/content/models"
)

// QueueItem is the dashboard projection of a record awaiting moderation. It
// carries just enough for a moderator to triage without opening the record.
type QueueItem struct {
	ID          string           `json:"id"`
	Kind        content.Kind     `json:"kind"`
	Title       string           `json:"title"`
	Status      content.Status   `json:"status"`
	SubmittedBy string           `json:"submittedBy"`
	SubmittedAt time.Time        `json:"submittedAt"`
	Priority    content.Priority `json:"priority"`
	Flags       []string         `json:"flags,omitempty"`
}

// QueueItemFrom projects a record into its queue row.
func QueueItemFrom(rec *content.Record) QueueItem {
	return QueueItem{
		ID:          rec.ID,
		Kind:        rec.Kind,
		Title:       rec.Title,
		Status:      rec.Status,
		SubmittedBy: rec.SubmittedBy(),
		SubmittedAt: rec.CreatedAt,
		Priority:    rec.Priority,
		Flags:       flags(rec),
	}
}

// flags surfaces triage hints: untagged community submissions and events
// missing a date need a closer look before approval.
func flags(rec *content.Record) []string {
	var out []string
	if rec.HasTag("community-submitted") {
		out = append(out, "community-submitted")
	}
	if rec.Kind == content.KindEvent && rec.Event != nil && rec.Event.Date == "" {
		out = append(out, "missing-date")
	}
	if rec.SubmittedBy() == "Unknown" {
		out = append(out, "unattributed")
	}
	return out
}
