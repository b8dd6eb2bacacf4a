package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"blkout/internal/content/models"
	"blkout/pkg/platform/sentinel"
	"blkout/pkg/requestcontext"
)

// MemoryStore keeps records in process memory. Used in tests and when no
// POSTGRES_DSN is configured.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*models.Record
	seq     map[string]uint64
	nextSeq uint64
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*models.Record),
		seq:     make(map[string]uint64),
	}
}

func (s *MemoryStore) Insert(ctx context.Context, rec *models.Record) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := rec.Clone()
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	} else if _, exists := s.records[cp.ID]; exists {
		return nil, sentinel.ErrConflict
	}

	now := requestcontext.Now(ctx)
	cp.CreatedAt = now
	cp.UpdatedAt = now

	s.nextSeq++
	s.seq[cp.ID] = s.nextSeq
	s.records[cp.ID] = cp
	return cp.Clone(), nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id string) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, patch Patch) (*models.Record, error) {
	return s.Execute(ctx, id, nil, func(rec *models.Record) error {
		return patch.Apply(rec)
	})
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.records, id)
	delete(s.seq, id)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, f Filter) ([]*models.Record, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]*models.Record, 0, len(s.records))
	for _, rec := range s.records {
		if f.matches(rec) {
			matched = append(matched, rec)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		ti, tj := sortKey(matched[i]), sortKey(matched[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return s.seq[matched[i].ID] < s.seq[matched[j].ID]
	})

	total := len(matched)
	matched = page(matched, f.Offset, f.Limit)

	out := make([]*models.Record, len(matched))
	for i, rec := range matched {
		out[i] = rec.Clone()
	}
	return out, total, nil
}

func (s *MemoryStore) Execute(ctx context.Context, id string, validate func(*models.Record) error, mutate func(*models.Record) error) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if validate != nil {
		if err := validate(rec); err != nil {
			return nil, err
		}
	}
	if mutate != nil {
		// Mutate a copy so a failing mutation leaves the stored record intact.
		cp := rec.Clone()
		if err := mutate(cp); err != nil {
			return nil, err
		}
		cp.UpdatedAt = requestcontext.Now(ctx)
		s.records[id] = cp
		rec = cp
	}
	return rec.Clone(), nil
}

func sortKey(rec *models.Record) time.Time {
	if rec.PublishedAt != nil {
		return *rec.PublishedAt
	}
	return rec.CreatedAt
}

func page(recs []*models.Record, offset, limit int) []*models.Record {
	if offset >= len(recs) {
		return nil
	}
	recs = recs[offset:]
	if limit > 0 && limit < len(recs) {
		recs = recs[:limit]
	}
	return recs
}
