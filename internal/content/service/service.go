// Package service orchestrates submission intake, editing and engagement. It
// keeps orchestration out of handlers and leaves transition rules to the
// models.
package service

import (
	"context"
	"errors"
	"log/slog"

	"blkout/internal/content/metrics"
	"blkout/internal/content/models"
	"blkout/internal/content/store"
	"blkout/internal/notify"
	dErrors "blkout/pkg/domain-errors"
	"blkout/pkg/platform/sentinel"
	"blkout/pkg/requestcontext"
)

// Normalizer converts raw channel payloads into canonical records.
type Normalizer interface {
	Normalize(channel models.Channel, kindHint models.Kind, raw map[string]any) (*models.Record, error)
}

type Service struct {
	store      store.Store
	normalizer Normalizer
	publisher  notify.Publisher
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

func New(st store.Store, n Normalizer, pub notify.Publisher, logger *slog.Logger, m *metrics.Metrics) *Service {
	if pub == nil {
		pub = notify.NopPublisher{}
	}
	return &Service{store: st, normalizer: n, publisher: pub, logger: logger, metrics: m}
}

// Submit normalizes a raw payload and stores it. The stored record enters the
// moderation queue; a "created" event is published after the insert commits.
func (s *Service) Submit(ctx context.Context, channel models.Channel, kindHint models.Kind, raw map[string]any) (*models.Record, error) {
	rec, err := s.normalizer.Normalize(channel, kindHint, raw)
	if err != nil {
		return nil, err
	}

	stored, err := s.store.Insert(ctx, rec)
	if err != nil {
		return nil, s.translate(err, "store submission")
	}

	s.metrics.RecordSubmission(string(stored.Kind), string(stored.SubmittedVia))
	s.logger.InfoContext(ctx, "submission accepted",
		"request_id", requestcontext.RequestID(ctx),
		"submission_id", stored.ID,
		"kind", stored.Kind,
		"channel", stored.SubmittedVia,
		"status", stored.Status,
	)

	s.publisher.Publish(notify.Event{
		Type:       notify.EventCreated,
		Record:     stored,
		OccurredAt: requestcontext.Now(ctx),
	})
	return stored, nil
}

// Get returns a single record regardless of status. Handlers decide whether
// the caller may see unpublished records.
func (s *Service) Get(ctx context.Context, id string) (*models.Record, error) {
	rec, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, "find submission")
	}
	return rec, nil
}

// Update applies a partial edit. Status and counters are not patchable here;
// they move through moderation actions and engagement endpoints.
func (s *Service) Update(ctx context.Context, id string, patch store.Patch) (*models.Record, error) {
	rec, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return nil, s.translate(err, "update submission")
	}
	s.logger.InfoContext(ctx, "submission updated",
		"request_id", requestcontext.RequestID(ctx),
		"submission_id", id,
	)
	return rec, nil
}

// Delete removes a record permanently.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return s.translate(err, "delete submission")
	}
	s.logger.InfoContext(ctx, "submission deleted",
		"request_id", requestcontext.RequestID(ctx),
		"submission_id", id,
	)
	return nil
}

// ListPublished returns the public feed: published records only, newest first.
func (s *Service) ListPublished(ctx context.Context, f store.Filter) ([]*models.Record, int, error) {
	f.Statuses = []models.Status{models.StatusPublished}
	recs, total, err := s.store.List(ctx, f)
	if err != nil {
		return nil, 0, s.translate(err, "list published")
	}
	return recs, total, nil
}

// ListAll returns records in any status. Moderator surfaces only.
func (s *Service) ListAll(ctx context.Context, f store.Filter) ([]*models.Record, int, error) {
	recs, total, err := s.store.List(ctx, f)
	if err != nil {
		return nil, 0, s.translate(err, "list submissions")
	}
	return recs, total, nil
}

// RecordView increments an article's view counter.
func (s *Service) RecordView(ctx context.Context, id string) (*models.Record, error) {
	return s.engage(ctx, id, "view", func(r *models.Record) error {
		return r.ApplyView(requestcontext.Now(ctx))
	})
}

// RecordLike increments an article's like counter.
func (s *Service) RecordLike(ctx context.Context, id string) (*models.Record, error) {
	return s.engage(ctx, id, "like", func(r *models.Record) error {
		return r.ApplyLike(requestcontext.Now(ctx))
	})
}

// RecordRSVP increments an event's RSVP counter, bounded by capacity.
func (s *Service) RecordRSVP(ctx context.Context, id string) (*models.Record, error) {
	return s.engage(ctx, id, "rsvp", func(r *models.Record) error {
		return r.ApplyRSVP(requestcontext.Now(ctx))
	})
}

func (s *Service) engage(ctx context.Context, id, action string, mutate func(*models.Record) error) (*models.Record, error) {
	rec, err := s.store.Execute(ctx, id, func(r *models.Record) error {
		if r.Status != models.StatusPublished {
			return dErrors.Newf(dErrors.CodeConflict, "cannot %s unpublished content", action)
		}
		return nil
	}, mutate)
	if err != nil {
		return nil, s.translate(err, action)
	}
	s.metrics.RecordEngagement(action)
	return rec, nil
}

// translate maps store sentinels to domain errors; domain errors pass through.
func (s *Service) translate(err error, op string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "submission not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "submission already exists")
	}
	var dErr *dErrors.Error
	if errors.As(err, &dErr) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, op+" failed")
}
