// Package service implements moderation decisions over the submission store.
// Transitions run inside store.Execute so a decision is validated against the
// state it will mutate, under the same lock.
package service

import (
	"context"
	"errors"
	"log/slog"

	content "blkout/internal/content/models"
	"blkout/internal/content/store"
	"blkout/internal/moderation/metrics"
	"blkout/internal/moderation/models"
	"blkout/internal/notify"
	dErrors "blkout/pkg/domain-errors"
	"blkout/pkg/platform/sentinel"
	"blkout/pkg/requestcontext"
)

type Service struct {
	store     store.Store
	publisher notify.Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func New(st store.Store, pub notify.Publisher, logger *slog.Logger, m *metrics.Metrics) *Service {
	if pub == nil {
		pub = notify.NopPublisher{}
	}
	return &Service{store: st, publisher: pub, logger: logger, metrics: m}
}

// Queue lists records awaiting moderation (draft and pending), newest first.
func (s *Service) Queue(ctx context.Context, limit, offset int) ([]models.QueueItem, int, error) {
	recs, total, err := s.store.List(ctx, store.Filter{
		Statuses: []content.Status{content.StatusDraft, content.StatusPending},
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "list moderation queue")
	}

	items := make([]models.QueueItem, len(recs))
	for i, rec := range recs {
		items[i] = models.QueueItemFrom(rec)
	}
	s.metrics.SetQueueDepth(total)
	return items, total, nil
}

// Approve moves a record to approved. The moderator comes from the request
// context set by the auth middleware.
func (s *Service) Approve(ctx context.Context, id string) (*content.Record, error) {
	return s.transition(ctx, id, "approve",
		func(r *content.Record) error { return r.CanApprove() },
		func(r *content.Record) error {
			r.ApplyApproval(requestcontext.Moderator(ctx), requestcontext.Now(ctx))
			return nil
		},
		notify.EventApproved,
	)
}

// Publish moves an approved record to published, making it publicly visible.
func (s *Service) Publish(ctx context.Context, id string) (*content.Record, error) {
	return s.transition(ctx, id, "publish",
		func(r *content.Record) error { return r.CanPublish() },
		func(r *content.Record) error {
			r.ApplyPublication(requestcontext.Now(ctx))
			return nil
		},
		notify.EventPublished,
	)
}

// Reject moves a record to rejected. A reason is required; it lands in the
// record for the audit trail and in the rejection notification.
func (s *Service) Reject(ctx context.Context, id, reason string) (*content.Record, error) {
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "rejection reason is required").
			WithFields(map[string]string{"reason": "required"})
	}
	return s.transition(ctx, id, "reject",
		func(r *content.Record) error { return r.CanReject() },
		func(r *content.Record) error {
			r.ApplyRejection(requestcontext.Moderator(ctx), reason, requestcontext.Now(ctx))
			return nil
		},
		notify.EventRejected,
	)
}

// BatchResult reports the outcome for one record of a batch approval.
type BatchResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// BatchApprove approves each record independently. One failure never aborts
// the rest; the caller gets a per-record outcome list.
func (s *Service) BatchApprove(ctx context.Context, ids []string) ([]BatchResult, error) {
	if len(ids) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "ids must not be empty").
			WithFields(map[string]string{"ids": "required"})
	}

	results := make([]BatchResult, len(ids))
	for i, id := range ids {
		_, err := s.Approve(ctx, id)
		results[i] = BatchResult{ID: id, Success: err == nil}
		if err != nil {
			results[i].Error = string(dErrors.CodeOf(err))
		}
	}
	return results, nil
}

func (s *Service) transition(
	ctx context.Context,
	id, action string,
	validate func(*content.Record) error,
	mutate func(*content.Record) error,
	eventType notify.EventType,
) (*content.Record, error) {
	rec, err := s.store.Execute(ctx, id, validate, mutate)
	if err != nil {
		s.metrics.RecordAction(action, "refused")
		return nil, s.translate(err, action)
	}

	s.metrics.RecordAction(action, "applied")
	s.logger.InfoContext(ctx, "moderation action applied",
		"request_id", requestcontext.RequestID(ctx),
		"submission_id", id,
		"action", action,
		"moderator", requestcontext.Moderator(ctx),
		"status", rec.Status,
	)

	// Published after the store commit: webhook failures never undo a
	// moderation decision.
	s.publisher.Publish(notify.Event{
		Type:       eventType,
		Record:     rec,
		OccurredAt: requestcontext.Now(ctx),
	})
	return rec, nil
}

func (s *Service) translate(err error, action string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "submission not found")
	case dErrors.HasCode(err, dErrors.CodeInvariantViolation):
		// The record moved on before this decision landed. Surface the
		// refusal as a conflict with the model's explanation.
		var de *dErrors.Error
		errors.As(err, &de)
		return dErrors.New(dErrors.CodeConflict, de.Message)
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, action+" failed")
}
