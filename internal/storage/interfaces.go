// Package storage defines the persistence interfaces for the airdrop run
// archive. The plain-text result bundle stays the authoritative artifact;
// the archive exists so past runs can be queried and compared.
package storage

import (
	"context"

	"xrpl-airdrop/internal/domain"
)

// RunStore provides access to airdrop_runs storage.
type RunStore interface {
	// Insert adds a completed run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.RunRecord) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.RunRecord, error)

	// List retrieves all runs, ordered by started_at ASC.
	List(ctx context.Context) ([]*domain.RunRecord, error)
}

// YieldRowStore provides access to yield_rows storage.
type YieldRowStore interface {
	// InsertBulk adds every row of a run. Fails the entire batch on any
	// duplicate (run_id, row_index).
	InsertBulk(ctx context.Context, rows []*domain.YieldRow) error

	// GetByRunID retrieves all rows of a run, ordered by row_index ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.YieldRow, error)
}
