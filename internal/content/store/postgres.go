package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"blkout/internal/content/models"
	"blkout/pkg/platform/sentinel"
	"blkout/pkg/requestcontext"
)

// PostgresStore persists submissions in PostgreSQL. The kind-specific details
// live in a jsonb column so events and articles share one table and one
// moderation path.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the submissions table when absent. The seq column
// preserves insertion order for records sharing a timestamp.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS content_submissions (
			id            UUID PRIMARY KEY,
			seq           BIGINT GENERATED ALWAYS AS IDENTITY,
			kind          TEXT NOT NULL,
			status        TEXT NOT NULL,
			title         TEXT NOT NULL,
			submitted_via TEXT NOT NULL,
			priority      TEXT NOT NULL,
			category      TEXT NOT NULL DEFAULT '',
			tags          TEXT[] NOT NULL DEFAULT '{}',
			featured      BOOLEAN NOT NULL DEFAULT FALSE,
			details       JSONB NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL,
			updated_at    TIMESTAMPTZ NOT NULL,
			approved_at   TIMESTAMPTZ,
			approved_by   TEXT NOT NULL DEFAULT '',
			published_at  TIMESTAMPTZ,
			rejected_at   TIMESTAMPTZ,
			rejected_by   TEXT NOT NULL DEFAULT '',
			reject_reason TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS content_submissions_status_idx
			ON content_submissions (status, created_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("ensure submissions schema: %w", err)
	}
	return nil
}

const recordColumns = `id, kind, status, title, submitted_via, priority, category, tags, featured,
	details, created_at, updated_at, approved_at, approved_by, published_at,
	rejected_at, rejected_by, reject_reason`

func (s *PostgresStore) Insert(ctx context.Context, rec *models.Record) (*models.Record, error) {
	cp := rec.Clone()
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	now := requestcontext.Now(ctx)
	cp.CreatedAt = now
	cp.UpdatedAt = now

	details, err := detailsJSON(cp)
	if err != nil {
		return nil, err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO content_submissions
			(id, kind, status, title, submitted_via, priority, category, tags, featured, details, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, cp.ID, cp.Kind, cp.Status, cp.Title, cp.SubmittedVia, cp.Priority, cp.Category, cp.Tags, cp.Featured, details, cp.CreatedAt, cp.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, sentinel.ErrConflict
		}
		return nil, fmt.Errorf("insert submission: %w", err)
	}
	return cp, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.Record, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+recordColumns+` FROM content_submissions WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find submission: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) Update(ctx context.Context, id string, patch Patch) (*models.Record, error) {
	return s.Execute(ctx, id, nil, func(rec *models.Record) error {
		return patch.Apply(rec)
	})
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM content_submissions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete submission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, f Filter) ([]*models.Record, int, error) {
	where, args := listPredicate(f)

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM content_submissions`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count submissions: %w", err)
	}

	query := `SELECT ` + recordColumns + ` FROM content_submissions` + where +
		` ORDER BY COALESCE(published_at, created_at) DESC, seq ASC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var out []*models.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan submission: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list submissions: %w", err)
	}
	return out, total, nil
}

// Execute loads the row FOR UPDATE inside a transaction, runs validate and
// mutate against the current state, and writes the result back. Concurrent
// transitions on the same record serialize on the row lock, so the second
// caller validates against the first caller's committed state.
func (s *PostgresStore) Execute(ctx context.Context, id string, validate func(*models.Record) error, mutate func(*models.Record) error) (*models.Record, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transition: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT `+recordColumns+` FROM content_submissions WHERE id = $1 FOR UPDATE`, id)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock submission: %w", err)
	}

	if validate != nil {
		if err := validate(rec); err != nil {
			return nil, err
		}
	}
	if mutate != nil {
		if err := mutate(rec); err != nil {
			return nil, err
		}
		rec.UpdatedAt = requestcontext.Now(ctx)

		details, err := detailsJSON(rec)
		if err != nil {
			return nil, err
		}
		_, err = tx.Exec(ctx, `
			UPDATE content_submissions SET
				status = $2, title = $3, submitted_via = $4, priority = $5, category = $6,
				tags = $7, featured = $8, details = $9, updated_at = $10,
				approved_at = $11, approved_by = $12, published_at = $13,
				rejected_at = $14, rejected_by = $15, reject_reason = $16
			WHERE id = $1
		`, rec.ID, rec.Status, rec.Title, rec.SubmittedVia, rec.Priority, rec.Category,
			rec.Tags, rec.Featured, details, rec.UpdatedAt,
			rec.ApprovedAt, rec.ApprovedBy, rec.PublishedAt,
			rec.RejectedAt, rec.RejectedBy, rec.RejectReason)
		if err != nil {
			return nil, fmt.Errorf("update submission: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	return rec, nil
}

func listPredicate(f Filter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if f.Kind != "" {
		add("kind = $%d", f.Kind)
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			statuses[i] = string(st)
		}
		add("status = ANY($%d)", statuses)
	}
	if f.Category != "" {
		add("category = $%d", f.Category)
	}
	if f.Featured != nil {
		add("featured = $%d", *f.Featured)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	where := " WHERE " + clauses[0]
	for _, c := range clauses[1:] {
		where += " AND " + c
	}
	return where, args
}

func detailsJSON(rec *models.Record) ([]byte, error) {
	var payload any
	switch rec.Kind {
	case models.KindEvent:
		payload = rec.Event
	case models.KindArticle:
		payload = rec.Article
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode submission details: %w", err)
	}
	return b, nil
}

func scanRecord(row pgx.Row) (*models.Record, error) {
	var (
		rec     models.Record
		details []byte
	)
	err := row.Scan(
		&rec.ID, &rec.Kind, &rec.Status, &rec.Title, &rec.SubmittedVia, &rec.Priority,
		&rec.Category, &rec.Tags, &rec.Featured, &details, &rec.CreatedAt, &rec.UpdatedAt,
		&rec.ApprovedAt, &rec.ApprovedBy, &rec.PublishedAt,
		&rec.RejectedAt, &rec.RejectedBy, &rec.RejectReason,
	)
	if err != nil {
		return nil, err
	}

	switch rec.Kind {
	case models.KindEvent:
		rec.Event = &models.EventDetails{}
		err = json.Unmarshal(details, rec.Event)
	case models.KindArticle:
		rec.Article = &models.ArticleDetails{}
		err = json.Unmarshal(details, rec.Article)
	}
	if err != nil {
		return nil, fmt.Errorf("decode submission details: %w", err)
	}
	return &rec, nil
}
