package models

import (
	"time"

	dErrors "blkout/pkg/domain-errors"
)

// Kind discriminates the two record variants.
type Kind string

const (
	KindEvent   Kind = "event"
	KindArticle Kind = "article"
)

// ParseKind validates a kind discriminator from a payload or route.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindEvent, KindArticle:
		return Kind(s), nil
	}
	return "", dErrors.Newf(dErrors.CodeBadRequest, "unknown kind %q, want event or article", s)
}

// Channel is the originating surface of a submission. Informational only.
type Channel string

const (
	ChannelWebForm   Channel = "web-form"
	ChannelExtension Channel = "chrome-extension"
	ChannelManual    Channel = "manual"
	ChannelWebhook   Channel = "webhook"
)

// Priority drives queue ordering hints in the moderation dashboard.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Location describes where an event happens.
type Location struct {
	Type    string `json:"type"` // physical, online or hybrid
	Address string `json:"address,omitempty"`
}

// EventDetails carries the event-specific payload.
type EventDetails struct {
	Description     string   `json:"description,omitempty"`
	Date            string   `json:"date,omitempty"` // YYYY-MM-DD
	StartTime       string   `json:"time,omitempty"` // HH:MM
	DurationMinutes int      `json:"duration,omitempty"`
	Location        Location `json:"location"`
	Organizer       string   `json:"organizer,omitempty"`
	Capacity        int      `json:"capacity,omitempty"`
	RSVPs           int      `json:"rsvps"`
	SourceURL       string   `json:"sourceUrl,omitempty"`
}

// ArticleDetails carries the article-specific payload.
type ArticleDetails struct {
	Excerpt   string `json:"excerpt,omitempty"`
	Content   string `json:"content,omitempty"`
	Author    string `json:"author,omitempty"`
	Views     int    `json:"views"`
	Likes     int    `json:"likes"`
	SourceURL string `json:"sourceUrl,omitempty"`
}

// Record is the canonical submission shape shared by every channel.
//
// Invariants:
//   - ID is unique within the store and never reassigned
//   - Kind never changes after creation
//   - Status follows the one-directional lifecycle in status.go
//   - RSVPs/Views/Likes only grow, and only via the Apply* counter methods
type Record struct {
	ID           string   `json:"id"`
	Kind         Kind     `json:"kind"`
	Status       Status   `json:"status"`
	Title        string   `json:"title"`
	SubmittedVia Channel  `json:"submittedVia"`
	Priority     Priority `json:"priority"`
	Category     string   `json:"category,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Featured     bool     `json:"featured"`

	Event   *EventDetails   `json:"event,omitempty"`
	Article *ArticleDetails `json:"article,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	ApprovedAt   *time.Time `json:"approvedAt,omitempty"`
	ApprovedBy   string     `json:"approvedBy,omitempty"`
	PublishedAt  *time.Time `json:"publishedAt,omitempty"`
	RejectedAt   *time.Time `json:"rejectedAt,omitempty"`
	RejectedBy   string     `json:"rejectedBy,omitempty"`
	RejectReason string     `json:"rejectReason,omitempty"`
}

// SubmittedBy derives the display name for the moderation queue: the organizer
// or author when present, "Chrome Extension" for extension submissions,
// "Unknown" otherwise.
func (r *Record) SubmittedBy() string {
	switch r.Kind {
	case KindEvent:
		if r.Event != nil && r.Event.Organizer != "" {
			return r.Event.Organizer
		}
	case KindArticle:
		if r.Article != nil && r.Article.Author != "" {
			return r.Article.Author
		}
	}
	if r.SubmittedVia == ChannelExtension {
		return "Chrome Extension"
	}
	return "Unknown"
}

// HasTag reports whether the record carries the given (normalized) tag.
func (r *Record) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// CanApprove checks the approval transition. Use with ApplyApproval inside a
// store Execute callback so validate and mutate happen under one lock.
func (r *Record) CanApprove() error {
	if !r.Status.CanTransitionTo(StatusApproved) {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "cannot approve record in status %q", r.Status)
	}
	return nil
}

// ApplyApproval transitions the record to approved.
func (r *Record) ApplyApproval(moderator string, now time.Time) {
	r.Status = StatusApproved
	r.ApprovedAt = &now
	r.ApprovedBy = moderator
	r.UpdatedAt = now
}

// CanPublish checks the publication transition.
func (r *Record) CanPublish() error {
	if !r.Status.CanTransitionTo(StatusPublished) {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "cannot publish record in status %q", r.Status)
	}
	return nil
}

// ApplyPublication transitions the record to published.
func (r *Record) ApplyPublication(now time.Time) {
	r.Status = StatusPublished
	r.PublishedAt = &now
	r.UpdatedAt = now
}

// CanReject checks the rejection transition.
func (r *Record) CanReject() error {
	if !r.Status.CanTransitionTo(StatusRejected) {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "cannot reject record in status %q", r.Status)
	}
	return nil
}

// ApplyRejection transitions the record to rejected, keeping the reason for
// the audit trail.
func (r *Record) ApplyRejection(moderator, reason string, now time.Time) {
	r.Status = StatusRejected
	r.RejectedAt = &now
	r.RejectedBy = moderator
	r.RejectReason = reason
	r.UpdatedAt = now
}

// ApplyView increments the article view counter.
func (r *Record) ApplyView(now time.Time) error {
	if r.Kind != KindArticle || r.Article == nil {
		return dErrors.New(dErrors.CodeBadRequest, "views are tracked for articles only")
	}
	r.Article.Views++
	r.UpdatedAt = now
	return nil
}

// ApplyLike increments the article like counter.
func (r *Record) ApplyLike(now time.Time) error {
	if r.Kind != KindArticle || r.Article == nil {
		return dErrors.New(dErrors.CodeBadRequest, "likes are tracked for articles only")
	}
	r.Article.Likes++
	r.UpdatedAt = now
	return nil
}

// ApplyRSVP increments the event RSVP counter, bounded by capacity when set.
func (r *Record) ApplyRSVP(now time.Time) error {
	if r.Kind != KindEvent || r.Event == nil {
		return dErrors.New(dErrors.CodeBadRequest, "rsvps are tracked for events only")
	}
	if r.Event.Capacity > 0 && r.Event.RSVPs >= r.Event.Capacity {
		return dErrors.New(dErrors.CodeConflict, "event is at capacity")
	}
	r.Event.RSVPs++
	r.UpdatedAt = now
	return nil
}

// Clone returns a deep copy so the in-memory store never hands out aliased
// mutable state.
func (r *Record) Clone() *Record {
	cp := *r
	cp.Tags = append([]string(nil), r.Tags...)
	if r.Event != nil {
		ev := *r.Event
		cp.Event = &ev
	}
	if r.Article != nil {
		ar := *r.Article
		cp.Article = &ar
	}
	cp.ApprovedAt = cloneTime(r.ApprovedAt)
	cp.PublishedAt = cloneTime(r.PublishedAt)
	cp.RejectedAt = cloneTime(r.RejectedAt)
	return &cp
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}
