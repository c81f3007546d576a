package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"xrpl-airdrop/internal/domain"
	"xrpl-airdrop/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL. Monetary columns
// are TEXT: exact decimal strings go in and come back out untouched.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

// Insert adds a completed run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, r *domain.RunRecord) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO airdrop_runs (
			run_id, issuer_address, issued_currency, yielding_currency,
			budget, trustline_sum, ratio, fetched, filtered, started_at, elapsed_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.pool.Exec(ctx, query,
		r.RunID,
		r.IssuerAddress,
		r.IssuedCurrency,
		r.YieldingCurrency,
		r.Budget,
		r.Sum,
		r.Ratio,
		r.Fetched,
		r.Filtered,
		r.StartedAt,
		r.ElapsedMs,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.RunRecord, error) {
	query := `
		SELECT run_id, issuer_address, issued_currency, yielding_currency,
		       budget, trustline_sum, ratio, fetched, filtered, started_at, elapsed_ms, created_at
		FROM airdrop_runs
		WHERE run_id = $1
	`

	row := s.pool.QueryRow(ctx, query, runID)
	r, err := scanRun(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run by id: %w", err)
	}
	return r, nil
}

// List retrieves all runs, ordered by started_at ASC.
func (s *RunStore) List(ctx context.Context) ([]*domain.RunRecord, error) {
	query := `
		SELECT run_id, issuer_address, issued_currency, yielding_currency,
		       budget, trustline_sum, ratio, fetched, filtered, started_at, elapsed_ms, created_at
		FROM airdrop_runs
		ORDER BY started_at ASC, run_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []*domain.RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

// scanRun scans a single run row.
func scanRun(row pgx.Row) (*domain.RunRecord, error) {
	var r domain.RunRecord
	err := row.Scan(
		&r.RunID,
		&r.IssuerAddress,
		&r.IssuedCurrency,
		&r.YieldingCurrency,
		&r.Budget,
		&r.Sum,
		&r.Ratio,
		&r.Fetched,
		&r.Filtered,
		&r.StartedAt,
		&r.ElapsedMs,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
