package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"blkout/internal/content/models"
	"blkout/pkg/platform/sentinel"
	"blkout/pkg/requestcontext"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *MemoryStore
	ctx   context.Context
	now   time.Time
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemoryStore()
	s.now = time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *MemoryStoreSuite) insertEvent(title string, status models.Status, at time.Time) *models.Record {
	ctx := requestcontext.WithTime(context.Background(), at)
	rec, err := s.store.Insert(ctx, &models.Record{
		Kind:   models.KindEvent,
		Status: status,
		Title:  title,
		Event:  &models.EventDetails{Location: models.Location{Type: "physical", Address: "TBD"}},
	})
	s.Require().NoError(err)
	return rec
}

func (s *MemoryStoreSuite) TestInsertAssignsIDAndTimestamps() {
	rec := s.insertEvent("Healing Circle", models.StatusDraft, s.now)

	s.NotEmpty(rec.ID)
	s.Equal(s.now, rec.CreatedAt)
	s.Equal(s.now, rec.UpdatedAt)

	found, err := s.store.FindByID(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal("Healing Circle", found.Title)
}

func (s *MemoryStoreSuite) TestInsertRejectsDuplicateID() {
	rec := s.insertEvent("First", models.StatusDraft, s.now)

	_, err := s.store.Insert(s.ctx, &models.Record{ID: rec.ID, Kind: models.KindEvent, Event: &models.EventDetails{}})
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *MemoryStoreSuite) TestFindByIDMissing() {
	_, err := s.store.FindByID(s.ctx, "nope")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestFindByIDReturnsCopy() {
	rec := s.insertEvent("Copy Me", models.StatusDraft, s.now)

	first, err := s.store.FindByID(s.ctx, rec.ID)
	s.Require().NoError(err)
	first.Title = "mutated"
	first.Event.Organizer = "mutated"

	second, err := s.store.FindByID(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal("Copy Me", second.Title)
	s.Empty(second.Event.Organizer)
}

func (s *MemoryStoreSuite) TestUpdateMergesPatch() {
	rec := s.insertEvent("Before", models.StatusDraft, s.now)

	title := "After"
	organizer := "Arts Collective"
	later := requestcontext.WithTime(context.Background(), s.now.Add(time.Hour))
	updated, err := s.store.Update(later, rec.ID, Patch{Title: &title, Organizer: &organizer})
	s.Require().NoError(err)

	s.Equal("After", updated.Title)
	s.Equal("Arts Collective", updated.Event.Organizer)
	s.Equal(s.now, updated.CreatedAt)
	s.Equal(s.now.Add(time.Hour), updated.UpdatedAt)
}

func (s *MemoryStoreSuite) TestUpdateRejectsWrongKindFields() {
	rec := s.insertEvent("Event Only", models.StatusDraft, s.now)

	author := "Someone"
	_, err := s.store.Update(s.ctx, rec.ID, Patch{Author: &author})
	s.Require().Error(err)

	// A failed patch leaves the record untouched.
	found, err := s.store.FindByID(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal("Event Only", found.Title)
}

func (s *MemoryStoreSuite) TestDelete() {
	rec := s.insertEvent("Gone", models.StatusDraft, s.now)

	s.Require().NoError(s.store.Delete(s.ctx, rec.ID))
	_, err := s.store.FindByID(s.ctx, rec.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Require().ErrorIs(s.store.Delete(s.ctx, rec.ID), sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestListFiltersAndSorts() {
	oldest := s.insertEvent("Oldest", models.StatusPublished, s.now.Add(-2*time.Hour))
	middle := s.insertEvent("Middle", models.StatusPending, s.now.Add(-time.Hour))
	newest := s.insertEvent("Newest", models.StatusPending, s.now)

	all, total, err := s.store.List(s.ctx, Filter{})
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Equal([]string{newest.ID, middle.ID, oldest.ID}, ids(all))

	pending, total, err := s.store.List(s.ctx, Filter{Statuses: []models.Status{models.StatusPending}})
	s.Require().NoError(err)
	s.Equal(2, total)
	s.Equal([]string{newest.ID, middle.ID}, ids(pending))
}

func (s *MemoryStoreSuite) TestListEqualTimestampsKeepInsertionOrder() {
	first := s.insertEvent("First", models.StatusPending, s.now)
	second := s.insertEvent("Second", models.StatusPending, s.now)
	third := s.insertEvent("Third", models.StatusPending, s.now)

	all, _, err := s.store.List(s.ctx, Filter{})
	s.Require().NoError(err)
	s.Equal([]string{first.ID, second.ID, third.ID}, ids(all))
}

func (s *MemoryStoreSuite) TestListPagination() {
	for i := 0; i < 5; i++ {
		s.insertEvent("Rec", models.StatusPending, s.now.Add(time.Duration(i)*time.Minute))
	}

	page1, total, err := s.store.List(s.ctx, Filter{Limit: 2})
	s.Require().NoError(err)
	s.Equal(5, total)
	s.Len(page1, 2)

	page3, total, err := s.store.List(s.ctx, Filter{Limit: 2, Offset: 4})
	s.Require().NoError(err)
	s.Equal(5, total)
	s.Len(page3, 1)

	empty, total, err := s.store.List(s.ctx, Filter{Offset: 99})
	s.Require().NoError(err)
	s.Equal(5, total)
	s.Empty(empty)
}

func (s *MemoryStoreSuite) TestExecuteValidatesBeforeMutating() {
	rec := s.insertEvent("Approve Me", models.StatusDraft, s.now)

	updated, err := s.store.Execute(s.ctx, rec.ID,
		func(r *models.Record) error { return r.CanApprove() },
		func(r *models.Record) error { r.ApplyApproval("ops@blkout", s.now); return nil },
	)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, updated.Status)

	_, err = s.store.Execute(s.ctx, rec.ID,
		func(r *models.Record) error { return r.CanApprove() },
		func(r *models.Record) error { r.ApplyApproval("ops@blkout", s.now); return nil },
	)
	s.Require().Error(err, "second approval sees the committed state")
}

func (s *MemoryStoreSuite) TestExecuteFailedMutationLeavesRecordIntact() {
	rec := s.insertEvent("At Capacity", models.StatusPublished, s.now)
	_, err := s.store.Execute(s.ctx, rec.ID, nil, func(r *models.Record) error {
		r.Event.Capacity = 1
		r.Event.RSVPs = 1
		return nil
	})
	s.Require().NoError(err)

	_, err = s.store.Execute(s.ctx, rec.ID, nil, func(r *models.Record) error {
		return r.ApplyRSVP(s.now)
	})
	s.Require().Error(err)

	found, err := s.store.FindByID(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal(1, found.Event.RSVPs)
}

func ids(recs []*models.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func TestExecuteConcurrentApprovals(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	rec, err := store.Insert(ctx, &models.Record{
		Kind:   models.KindEvent,
		Status: models.StatusPending,
		Title:  "Contested",
		Event:  &models.EventDetails{},
	})
	require.NoError(t, err)

	const workers = 16
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Execute(ctx, rec.ID,
				func(r *models.Record) error { return r.CanApprove() },
				func(r *models.Record) error { r.ApplyApproval("ops@blkout", time.Now().UTC()); return nil },
			)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		}
	}
	require.Equal(t, 1, succeeded, "exactly one concurrent approval wins")
}
