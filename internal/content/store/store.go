// Package store persists submission records. Implementations are
// interface-driven so the moderation logic runs unchanged against the
// in-memory store in tests and PostgreSQL in production.
package store

import (
	"context"

	"blkout/internal/content/models"
	dErrors "blkout/pkg/domain-errors"
)

// Store is the only path to submission state. Components never mutate records
// outside this contract.
type Store interface {
	// Insert stores a new record, assigning an ID when absent and stamping
	// CreatedAt/UpdatedAt. A caller-supplied ID that already exists fails
	// with sentinel.ErrConflict.
	Insert(ctx context.Context, rec *models.Record) (*models.Record, error)

	// FindByID returns a copy of the record or sentinel.ErrNotFound.
	FindByID(ctx context.Context, id string) (*models.Record, error)

	// Update merges the patch into the record and refreshes UpdatedAt.
	// ID and Kind are immutable by construction: Patch has no such fields.
	Update(ctx context.Context, id string, patch Patch) (*models.Record, error)

	// Delete removes the record permanently.
	Delete(ctx context.Context, id string) error

	// List returns matching records sorted newest first (publishedAt when
	// set, otherwise createdAt; equal timestamps keep insertion order) plus
	// the total match count before pagination.
	List(ctx context.Context, f Filter) ([]*models.Record, int, error)

	// Execute runs validate-then-mutate while holding the record's lock
	// (mutex in memory, SELECT ... FOR UPDATE in postgres) so status
	// transitions are race-free: concurrent approvals of the same record
	// serialize, and the loser sees the already-applied state.
	Execute(ctx context.Context, id string, validate func(*models.Record) error, mutate func(*models.Record) error) (*models.Record, error)
}

// Filter selects records for List.
type Filter struct {
	Kind     models.Kind
	Statuses []models.Status
	Category string
	Featured *bool
	Limit    int
	Offset   int
}

func (f Filter) matches(rec *models.Record) bool {
	if f.Kind != "" && rec.Kind != f.Kind {
		return false
	}
	if len(f.Statuses) > 0 {
		ok := false
		for _, s := range f.Statuses {
			if rec.Status == s {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.Category != "" && rec.Category != f.Category {
		return false
	}
	if f.Featured != nil && rec.Featured != *f.Featured {
		return false
	}
	return true
}

// Patch is a partial update. Nil fields are left untouched; a non-nil Tags
// slice replaces the tag list. Event- and article-specific fields fail with
// bad_request when the record is of the other kind.
type Patch struct {
	Title    *string
	Category *string
	Featured *bool
	Priority *models.Priority
	Tags     []string

	// Event fields.
	Description     *string
	Date            *string
	StartTime       *string
	DurationMinutes *int
	Location        *models.Location
	Organizer       *string
	Capacity        *int

	// Article fields.
	Excerpt *string
	Content *string
	Author  *string

	SourceURL *string
}

// Apply merges the patch into rec. Counter and status fields are deliberately
// absent: they move only through their dedicated operations.
func (p Patch) Apply(rec *models.Record) error {
	if p.Title != nil {
		rec.Title = *p.Title
	}
	if p.Category != nil {
		rec.Category = *p.Category
	}
	if p.Featured != nil {
		rec.Featured = *p.Featured
	}
	if p.Priority != nil {
		rec.Priority = *p.Priority
	}
	if p.Tags != nil {
		rec.Tags = append([]string(nil), p.Tags...)
	}

	if p.hasEventFields() {
		if rec.Kind != models.KindEvent || rec.Event == nil {
			return dErrors.New(dErrors.CodeBadRequest, "event fields cannot be patched on an article")
		}
		ev := rec.Event
		setString(&ev.Description, p.Description)
		setString(&ev.Date, p.Date)
		setString(&ev.StartTime, p.StartTime)
		setString(&ev.Organizer, p.Organizer)
		if p.DurationMinutes != nil {
			ev.DurationMinutes = *p.DurationMinutes
		}
		if p.Location != nil {
			ev.Location = *p.Location
		}
		if p.Capacity != nil {
			ev.Capacity = *p.Capacity
		}
	}

	if p.hasArticleFields() {
		if rec.Kind != models.KindArticle || rec.Article == nil {
			return dErrors.New(dErrors.CodeBadRequest, "article fields cannot be patched on an event")
		}
		ar := rec.Article
		setString(&ar.Excerpt, p.Excerpt)
		setString(&ar.Content, p.Content)
		setString(&ar.Author, p.Author)
	}

	if p.SourceURL != nil {
		switch rec.Kind {
		case models.KindEvent:
			rec.Event.SourceURL = *p.SourceURL
		case models.KindArticle:
			rec.Article.SourceURL = *p.SourceURL
		}
	}
	return nil
}

func (p Patch) hasEventFields() bool {
	return p.Description != nil || p.Date != nil || p.StartTime != nil ||
		p.DurationMinutes != nil || p.Location != nil || p.Organizer != nil || p.Capacity != nil
}

func (p Patch) hasArticleFields() bool {
	return p.Excerpt != nil || p.Content != nil || p.Author != nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
