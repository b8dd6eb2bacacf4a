//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"blkout/internal/content/models"
	"blkout/internal/content/store"
	"blkout/pkg/platform/sentinel"
	"blkout/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.StartPostgres(s.T())
	s.store = store.NewPostgresStore(s.postgres.Pool)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "content_submissions"))
}

func newTestEvent(title string, status models.Status) *models.Record {
	return &models.Record{
		Kind:         models.KindEvent,
		Status:       status,
		Title:        title,
		SubmittedVia: models.ChannelWebForm,
		Priority:     models.PriorityMedium,
		Tags:         []string{"community-submitted"},
		Event: &models.EventDetails{
			Date:      "2025-03-01",
			StartTime: "19:00",
			Location:  models.Location{Type: "physical", Address: "TBD"},
			Organizer: "Arts Collective",
		},
	}
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()

	inserted, err := s.store.Insert(ctx, newTestEvent("Open Mic", models.StatusPending))
	s.Require().NoError(err)
	s.NotEmpty(inserted.ID)

	found, err := s.store.FindByID(ctx, inserted.ID)
	s.Require().NoError(err)
	s.Equal("Open Mic", found.Title)
	s.Equal(models.StatusPending, found.Status)
	s.Require().NotNil(found.Event)
	s.Equal("Arts Collective", found.Event.Organizer)
	s.Equal([]string{"community-submitted"}, found.Tags)
}

func (s *PostgresStoreSuite) TestFindMissing() {
	_, err := s.store.FindByID(context.Background(), "11111111-1111-1111-1111-111111111111")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpdatePatch() {
	ctx := context.Background()
	rec, err := s.store.Insert(ctx, newTestEvent("Before", models.StatusPending))
	s.Require().NoError(err)

	title := "After"
	capacity := 80
	updated, err := s.store.Update(ctx, rec.ID, store.Patch{Title: &title, Capacity: &capacity})
	s.Require().NoError(err)
	s.Equal("After", updated.Title)
	s.Equal(80, updated.Event.Capacity)

	found, err := s.store.FindByID(ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal("After", found.Title)
}

func (s *PostgresStoreSuite) TestDelete() {
	ctx := context.Background()
	rec, err := s.store.Insert(ctx, newTestEvent("Gone", models.StatusPending))
	s.Require().NoError(err)

	s.Require().NoError(s.store.Delete(ctx, rec.ID))
	s.Require().ErrorIs(s.store.Delete(ctx, rec.ID), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListFiltersAndOrders() {
	ctx := context.Background()

	older, err := s.store.Insert(ctx, newTestEvent("Older", models.StatusPending))
	s.Require().NoError(err)
	time.Sleep(10 * time.Millisecond)
	newer, err := s.store.Insert(ctx, newTestEvent("Newer", models.StatusPending))
	s.Require().NoError(err)
	_, err = s.store.Insert(ctx, newTestEvent("Elsewhere", models.StatusRejected))
	s.Require().NoError(err)

	recs, total, err := s.store.List(ctx, store.Filter{Statuses: []models.Status{models.StatusPending}})
	s.Require().NoError(err)
	s.Equal(2, total)
	s.Require().Len(recs, 2)
	s.Equal(newer.ID, recs[0].ID)
	s.Equal(older.ID, recs[1].ID)
}

func (s *PostgresStoreSuite) TestExecuteTransition() {
	ctx := context.Background()
	rec, err := s.store.Insert(ctx, newTestEvent("Approve Me", models.StatusPending))
	s.Require().NoError(err)

	now := time.Now().UTC()
	updated, err := s.store.Execute(ctx, rec.ID,
		func(r *models.Record) error { return r.CanApprove() },
		func(r *models.Record) error { r.ApplyApproval("ops@blkout", now); return nil },
	)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, updated.Status)
	s.Equal("ops@blkout", updated.ApprovedBy)

	found, err := s.store.FindByID(ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, found.Status)
	s.Require().NotNil(found.ApprovedAt)
}

// TestConcurrentApprovals verifies the row lock serializes transitions: out of
// many concurrent approvals exactly one commits.
func (s *PostgresStoreSuite) TestConcurrentApprovals() {
	ctx := context.Background()
	rec, err := s.store.Insert(ctx, newTestEvent("Contested", models.StatusPending))
	s.Require().NoError(err)

	const goroutines = 20
	var wg sync.WaitGroup
	var successCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Execute(ctx, rec.ID,
				func(r *models.Record) error { return r.CanApprove() },
				func(r *models.Record) error { r.ApplyApproval("ops@blkout", time.Now().UTC()); return nil },
			)
			if err == nil {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load())
}
