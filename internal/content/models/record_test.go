package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "blkout/pkg/domain-errors"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusDraft, StatusApproved, true},
		{StatusPending, StatusApproved, true},
		{StatusDraft, StatusRejected, true},
		{StatusPending, StatusRejected, true},
		{StatusApproved, StatusPublished, true},

		{StatusApproved, StatusApproved, false},
		{StatusPublished, StatusApproved, false},
		{StatusRejected, StatusApproved, false},
		{StatusApproved, StatusRejected, false},
		{StatusPublished, StatusRejected, false},
		{StatusDraft, StatusPublished, false},
		{StatusPending, StatusPublished, false},
		{StatusPublished, StatusPublished, false},
		{StatusApproved, StatusPending, false},
		{StatusRejected, StatusPending, false},
		{StatusPublished, StatusDraft, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestRecordLifecycle(t *testing.T) {
	now := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	rec := &Record{ID: "rec-1", Kind: KindEvent, Status: StatusDraft, Title: "Community Healing Circle"}

	t.Run("approve from draft", func(t *testing.T) {
		require.NoError(t, rec.CanApprove())
		rec.ApplyApproval("ops@blkout", now)
		assert.Equal(t, StatusApproved, rec.Status)
		assert.Equal(t, "ops@blkout", rec.ApprovedBy)
		require.NotNil(t, rec.ApprovedAt)
		assert.Equal(t, now, *rec.ApprovedAt)
	})

	t.Run("second approve refused", func(t *testing.T) {
		err := rec.CanApprove()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("reject after approve refused", func(t *testing.T) {
		require.Error(t, rec.CanReject())
	})

	t.Run("publish from approved", func(t *testing.T) {
		require.NoError(t, rec.CanPublish())
		rec.ApplyPublication(now.Add(time.Hour))
		assert.Equal(t, StatusPublished, rec.Status)
		require.NotNil(t, rec.PublishedAt)
	})

	t.Run("publish is terminal", func(t *testing.T) {
		require.Error(t, rec.CanPublish())
		require.Error(t, rec.CanApprove())
		require.Error(t, rec.CanReject())
	})
}

func TestRejectionKeepsReason(t *testing.T) {
	now := time.Now().UTC()
	rec := &Record{ID: "rec-2", Kind: KindArticle, Status: StatusPending, Title: "Dup"}

	require.NoError(t, rec.CanReject())
	rec.ApplyRejection("ops@blkout", "duplicate event", now)

	assert.Equal(t, StatusRejected, rec.Status)
	assert.Equal(t, "duplicate event", rec.RejectReason)
	assert.Equal(t, "ops@blkout", rec.RejectedBy)
}

func TestCounters(t *testing.T) {
	now := time.Now().UTC()

	t.Run("article views and likes grow", func(t *testing.T) {
		rec := &Record{Kind: KindArticle, Article: &ArticleDetails{}}
		require.NoError(t, rec.ApplyView(now))
		require.NoError(t, rec.ApplyView(now))
		require.NoError(t, rec.ApplyLike(now))
		assert.Equal(t, 2, rec.Article.Views)
		assert.Equal(t, 1, rec.Article.Likes)
	})

	t.Run("event rsvp bounded by capacity", func(t *testing.T) {
		rec := &Record{Kind: KindEvent, Event: &EventDetails{Capacity: 1}}
		require.NoError(t, rec.ApplyRSVP(now))
		err := rec.ApplyRSVP(now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
		assert.Equal(t, 1, rec.Event.RSVPs)
	})

	t.Run("counters reject wrong kind", func(t *testing.T) {
		rec := &Record{Kind: KindEvent, Event: &EventDetails{}}
		require.Error(t, rec.ApplyView(now))
		require.Error(t, rec.ApplyLike(now))

		art := &Record{Kind: KindArticle, Article: &ArticleDetails{}}
		require.Error(t, art.ApplyRSVP(now))
	})
}

func TestSubmittedBy(t *testing.T) {
	tests := []struct {
		name     string
		record   Record
		expected string
	}{
		{
			name:     "event organizer wins",
			record:   Record{Kind: KindEvent, Event: &EventDetails{Organizer: "Healing Collective"}},
			expected: "Healing Collective",
		},
		{
			name:     "article author wins",
			record:   Record{Kind: KindArticle, Article: &ArticleDetails{Author: "Community Desk"}},
			expected: "Community Desk",
		},
		{
			name:     "extension fallback",
			record:   Record{Kind: KindEvent, SubmittedVia: ChannelExtension, Event: &EventDetails{}},
			expected: "Chrome Extension",
		},
		{
			name:     "unknown fallback",
			record:   Record{Kind: KindArticle, SubmittedVia: ChannelWebForm, Article: &ArticleDetails{}},
			expected: "Unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.record.SubmittedBy())
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	approved := time.Now().UTC()
	rec := &Record{
		ID:         "rec-3",
		Kind:       KindEvent,
		Tags:       []string{"healing"},
		Event:      &EventDetails{Organizer: "BLKOUT"},
		ApprovedAt: &approved,
	}

	cp := rec.Clone()
	cp.Tags[0] = "changed"
	cp.Event.Organizer = "changed"
	*cp.ApprovedAt = approved.Add(time.Hour)

	assert.Equal(t, "healing", rec.Tags[0])
	assert.Equal(t, "BLKOUT", rec.Event.Organizer)
	assert.Equal(t, approved, *rec.ApprovedAt)
}
