package models

// Status is the canonical moderation lifecycle state.
//
// Normal flow: draft/pending -> approved -> published, or
// draft/pending -> rejected. Nothing moves back to a pending state and the
// terminal states are sticky.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusPublished Status = "published"
	StatusRejected  Status = "rejected"
)

// Valid reports whether s is one of the canonical states.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusPublished, StatusRejected:
		return true
	}
	return false
}

// AwaitingModeration reports whether s belongs to the moderation queue.
func (s Status) AwaitingModeration() bool {
	return s == StatusDraft || s == StatusPending
}

// CanTransitionTo reports whether the one-directional lifecycle allows moving
// from s to next.
func (s Status) CanTransitionTo(next Status) bool {
	switch next {
	case StatusApproved, StatusRejected:
		return s.AwaitingModeration()
	case StatusPublished:
		return s == StatusApproved
	}
	return false
}
