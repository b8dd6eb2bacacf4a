package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blkout/internal/content/models"
	"blkout/internal/content/normalizer"
	"blkout/internal/content/store"
	"blkout/internal/notify"
	"blkout/internal/platform/logger"
	dErrors "blkout/pkg/domain-errors"
	"blkout/pkg/requestcontext"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (p *capturePublisher) Publish(e notify.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *capturePublisher) captured() []notify.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]notify.Event(nil), p.events...)
}

func newTestService() (*Service, *store.MemoryStore, *capturePublisher) {
	st := store.NewMemoryStore()
	pub := &capturePublisher{}
	svc := New(st, normalizer.New(), pub, logger.NewDiscard(), nil)
	return svc, st, pub
}

func testCtx() context.Context {
	return requestcontext.WithTime(context.Background(), time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC))
}

func TestSubmit(t *testing.T) {
	ctx := testCtx()

	t.Run("stores and publishes created event", func(t *testing.T) {
		svc, st, pub := newTestService()

		rec, err := svc.Submit(ctx, models.ChannelExtension, "", map[string]any{
			"type":  "event",
			"title": "Healing Circle",
			"date":  "2025-02-15",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, rec.ID)
		assert.Equal(t, models.StatusDraft, rec.Status)

		stored, err := st.FindByID(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, "Healing Circle", stored.Title)

		events := pub.captured()
		require.Len(t, events, 1)
		assert.Equal(t, notify.EventCreated, events[0].Type)
		assert.Equal(t, "event-created", events[0].WorkflowSlug())
	})

	t.Run("invalid payload stores nothing", func(t *testing.T) {
		svc, st, pub := newTestService()

		_, err := svc.Submit(ctx, models.ChannelWebForm, models.KindEvent, map[string]any{
			"description": "no title",
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

		_, total, err := st.List(ctx, store.Filter{})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, pub.captured())
	})
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := testCtx()
	svc, _, _ := newTestService()

	rec, err := svc.Submit(ctx, models.ChannelWebForm, models.KindArticle, map[string]any{
		"title":   "Original",
		"content": "body",
	})
	require.NoError(t, err)

	title := "Edited"
	updated, err := svc.Update(ctx, rec.ID, store.Patch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Edited", updated.Title)

	require.NoError(t, svc.Delete(ctx, rec.ID))
	_, err = svc.Get(ctx, rec.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	err = svc.Delete(ctx, rec.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestListPublishedHidesModerationQueue(t *testing.T) {
	ctx := testCtx()
	svc, st, _ := newTestService()

	pending, err := svc.Submit(ctx, models.ChannelWebForm, models.KindEvent, map[string]any{"title": "Pending"})
	require.NoError(t, err)

	published, err := svc.Submit(ctx, models.ChannelWebForm, models.KindEvent, map[string]any{"title": "Live"})
	require.NoError(t, err)
	now := requestcontext.Now(ctx)
	_, err = st.Execute(ctx, published.ID, nil, func(r *models.Record) error {
		r.ApplyApproval("ops@blkout", now)
		r.ApplyPublication(now)
		return nil
	})
	require.NoError(t, err)

	publicItems, total, err := svc.ListPublished(ctx, store.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, publicItems, 1)
	assert.Equal(t, published.ID, publicItems[0].ID)

	allItems, total, err := svc.ListAll(ctx, store.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, allItems, 2)
	_ = pending
}

func TestEngagement(t *testing.T) {
	ctx := testCtx()
	svc, st, _ := newTestService()

	article, err := svc.Submit(ctx, models.ChannelWebForm, models.KindArticle, map[string]any{
		"title":   "Read Me",
		"content": "body",
	})
	require.NoError(t, err)

	t.Run("counters refused before publication", func(t *testing.T) {
		_, err := svc.RecordView(ctx, article.ID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	now := requestcontext.Now(ctx)
	_, err = st.Execute(ctx, article.ID, nil, func(r *models.Record) error {
		r.ApplyApproval("ops@blkout", now)
		r.ApplyPublication(now)
		return nil
	})
	require.NoError(t, err)

	t.Run("views and likes accumulate", func(t *testing.T) {
		_, err := svc.RecordView(ctx, article.ID)
		require.NoError(t, err)
		rec, err := svc.RecordView(ctx, article.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, rec.Article.Views)

		rec, err = svc.RecordLike(ctx, article.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, rec.Article.Likes)
	})

	t.Run("rsvp on article refused", func(t *testing.T) {
		_, err := svc.RecordRSVP(ctx, article.ID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		_, err := svc.RecordView(ctx, "missing")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
