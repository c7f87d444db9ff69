// Package postgres persists feedback records to a Postgres table,
// grounded on manifold's internal/persistence/databases (NewXStore(pool)
// constructors returning the domain interface, an Init(ctx) that creates
// the table if absent, and an Exec-based Record/Insert method).
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wealthlens/ragpipe/internal/domain"
)

// Store persists domain.FeedbackRecord values to the feedback table.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps an existing pool as a domain.FeedbackSink.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Init creates the feedback table if it does not already exist.
func (s *Store) Init(ctx context.Context) error {
	if s.pool == nil {
		return errors.New("feedback/postgres: store requires a pool")
	}
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS feedback (
    id BIGSERIAL PRIMARY KEY,
    query_id TEXT NOT NULL,
    rating TEXT NOT NULL,
    detail TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_feedback_query_id ON feedback (query_id);
`)
	if err != nil {
		return fmt.Errorf("feedback/postgres: init schema: %w", err)
	}
	return nil
}

func (s *Store) Record(ctx context.Context, rec domain.FeedbackRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO feedback (query_id, rating, detail, created_at) VALUES ($1, $2, $3, $4)`,
		rec.QueryID, rec.Rating, rec.Detail, rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("feedback/postgres: insert record: %w", err)
	}
	return nil
}
