package casestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/p-n-ai/clinicase/internal/casemodel"
	"github.com/p-n-ai/clinicase/internal/clinical"
	"github.com/p-n-ai/clinicase/internal/ordering"
)

const (
	dbTimeout = 5 * time.Second

	uniqueViolation = "23505"
)

// PostgresStore is a PostgreSQL-backed Store. Step content is stored as
// JSONB in its serialized form.
type PostgresStore struct {
	pool *pgxpool.Pool
	reg  *clinical.Registry
}

// NewPostgresStore creates a store over an already migrated database.
func NewPostgresStore(pool *pgxpool.Pool, reg *clinical.Registry) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool, reg: reg}, nil
}

func (s *PostgresStore) CreateCase(ctx context.Context, c casemodel.Case) (casemodel.Case, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var prereq any
	if c.PrerequisiteCaseID != "" {
		if _, err := uuid.Parse(c.PrerequisiteCaseID); err != nil {
			return casemodel.Case{}, fmt.Errorf("prerequisite case %s: %w", c.PrerequisiteCaseID, ErrNotFound)
		}
		prereq = c.PrerequisiteCaseID
	}

	err := s.pool.QueryRow(ctx,
		`INSERT INTO cases (title, category_id, difficulty, duration, brief, thumbnail_url, is_locked, prerequisite_case_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8::uuid)
		 RETURNING id::text`,
		c.Title,
		c.CategoryID,
		string(c.Difficulty),
		c.Duration,
		c.Metadata.Brief,
		nullIfEmpty(c.ThumbnailURL),
		c.IsLocked,
		prereq,
	).Scan(&c.ID)
	if err != nil {
		return casemodel.Case{}, fmt.Errorf("create case: %w", err)
	}

	slog.Debug("case created", "case_id", c.ID, "title", c.Title)
	return c, nil
}

func (s *PostgresStore) GetCase(ctx context.Context, id string) (casemodel.Case, error) {
	if _, err := uuid.Parse(id); err != nil {
		return casemodel.Case{}, fmt.Errorf("case %s: %w", id, ErrNotFound)
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var c casemodel.Case
	var difficulty string
	var thumbnail, prereq *string
	err := s.pool.QueryRow(ctx,
		`SELECT id::text, title, category_id, difficulty, duration, brief, thumbnail_url, is_locked, prerequisite_case_id::text
		 FROM cases
		 WHERE id = $1::uuid`,
		id,
	).Scan(&c.ID, &c.Title, &c.CategoryID, &difficulty, &c.Duration, &c.Metadata.Brief, &thumbnail, &c.IsLocked, &prereq)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return casemodel.Case{}, fmt.Errorf("case %s: %w", id, ErrNotFound)
		}
		return casemodel.Case{}, fmt.Errorf("get case: %w", err)
	}

	c.Difficulty = casemodel.Difficulty(difficulty)
	if thumbnail != nil {
		c.ThumbnailURL = *thumbnail
	}
	if prereq != nil {
		c.PrerequisiteCaseID = *prereq
	}
	return c, nil
}

func (s *PostgresStore) CreateStep(ctx context.Context, caseID string, st casemodel.Step) (casemodel.Step, error) {
	if _, err := uuid.Parse(caseID); err != nil {
		return casemodel.Step{}, fmt.Errorf("case %s: %w", caseID, ErrNotFound)
	}
	rec, err := st.Record()
	if err != nil {
		return casemodel.Step{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	err = s.pool.QueryRow(ctx,
		`INSERT INTO steps (case_id, step_index, type, phase, category, content)
		 SELECT c.id, $2, $3, $4, $5, $6::jsonb
		 FROM cases c
		 WHERE c.id = $1::uuid
		 RETURNING id::text`,
		caseID,
		rec.StepIndex,
		string(rec.Type),
		nullIfEmpty(rec.Phase),
		nullIfEmpty(rec.Category),
		string(rec.Content),
	).Scan(&rec.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return casemodel.Step{}, fmt.Errorf("case %s: %w", caseID, ErrNotFound)
		}
		return casemodel.Step{}, fmt.Errorf("create step: %w", classify(err, rec))
	}

	slog.Debug("step created", "case_id", caseID, "step_id", rec.ID, "type", rec.Type)
	return casemodel.FromRecord(s.reg, rec)
}

func (s *PostgresStore) UpdateStep(ctx context.Context, caseID string, st casemodel.Step) (casemodel.Step, error) {
	if !validIDs(caseID, st.ID) {
		return casemodel.Step{}, fmt.Errorf("step %s: %w", st.ID, ErrNotFound)
	}
	rec, err := st.Record()
	if err != nil {
		return casemodel.Step{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := s.pool.Exec(ctx,
		`UPDATE steps
		 SET step_index = $3, type = $4, phase = $5, category = $6, content = $7::jsonb, updated_at = NOW()
		 WHERE id = $2::uuid AND case_id = $1::uuid`,
		caseID,
		rec.ID,
		rec.StepIndex,
		string(rec.Type),
		nullIfEmpty(rec.Phase),
		nullIfEmpty(rec.Category),
		string(rec.Content),
	)
	if err != nil {
		return casemodel.Step{}, fmt.Errorf("update step: %w", classify(err, rec))
	}
	if cmd.RowsAffected() == 0 {
		return casemodel.Step{}, fmt.Errorf("step %s: %w", rec.ID, ErrNotFound)
	}
	return casemodel.FromRecord(s.reg, rec)
}

func (s *PostgresStore) DeleteStep(ctx context.Context, caseID, stepID string) error {
	if !validIDs(caseID, stepID) {
		return fmt.Errorf("step %s: %w", stepID, ErrNotFound)
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := s.pool.Exec(ctx,
		`DELETE FROM steps WHERE id = $2::uuid AND case_id = $1::uuid`,
		caseID,
		stepID,
	)
	if err != nil {
		return fmt.Errorf("delete step: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("step %s: %w", stepID, ErrNotFound)
	}
	return nil
}

// BulkReorder rewrites step indexes in one transaction. An unknown step
// rolls back the whole batch.
func (s *PostgresStore) BulkReorder(ctx context.Context, caseID string, updates []ordering.IndexUpdate) error {
	if _, err := uuid.Parse(caseID); err != nil {
		return fmt.Errorf("case %s: %w", caseID, ErrNotFound)
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin reorder: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, u := range updates {
		if _, err := uuid.Parse(u.ID); err != nil {
			return fmt.Errorf("step %s: %w", u.ID, ErrNotFound)
		}
		batch.Queue(
			`UPDATE steps SET step_index = $3, updated_at = NOW()
			 WHERE id = $2::uuid AND case_id = $1::uuid`,
			caseID, u.ID, u.StepIndex,
		)
	}
	results := tx.SendBatch(ctx, batch)
	for _, u := range updates {
		cmd, err := results.Exec()
		if err != nil {
			_ = results.Close()
			return fmt.Errorf("reorder step %s: %w", u.ID, err)
		}
		if cmd.RowsAffected() == 0 {
			_ = results.Close()
			return fmt.Errorf("step %s: %w", u.ID, ErrNotFound)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("reorder batch: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit reorder: %w", err)
	}

	slog.Info("steps reordered", "case_id", caseID, "count", len(updates))
	return nil
}

func (s *PostgresStore) ListSteps(ctx context.Context, caseID string) ([]casemodel.Step, error) {
	if _, err := s.GetCase(ctx, caseID); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id::text, step_index, type, COALESCE(phase, ''), COALESCE(category, ''), content
		 FROM steps
		 WHERE case_id = $1::uuid
		 ORDER BY step_index ASC, id ASC`,
		caseID,
	)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	var out []casemodel.Step
	for rows.Next() {
		var rec casemodel.Record
		var typ string
		var content []byte
		if err := rows.Scan(&rec.ID, &rec.StepIndex, &typ, &rec.Phase, &rec.Category, &content); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		rec.Type = casemodel.Type(typ)
		rec.Content = content
		st, err := casemodel.FromRecord(s.reg, rec)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate steps: %w", err)
	}
	return out, nil
}

func classify(err error, rec casemodel.Record) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s/%s: %w", rec.Phase, rec.Category, ErrDuplicateCategory)
	}
	return err
}

func validIDs(ids ...string) bool {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return false
		}
	}
	return true
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}
