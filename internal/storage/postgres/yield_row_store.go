package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"xrpl-airdrop/internal/domain"
	"xrpl-airdrop/internal/storage"
)

// YieldRowStore implements storage.YieldRowStore using PostgreSQL.
type YieldRowStore struct {
	pool *Pool
}

// NewYieldRowStore creates a new YieldRowStore.
func NewYieldRowStore(pool *Pool) *YieldRowStore {
	return &YieldRowStore{pool: pool}
}

// Compile-time interface check.
var _ storage.YieldRowStore = (*YieldRowStore)(nil)

// InsertBulk adds every row of a run inside one transaction. Any
// duplicate (run_id, row_index) rolls the whole batch back.
func (s *YieldRowStore) InsertBulk(ctx context.Context, rows []*domain.YieldRow) error {
	if len(rows) == 0 {
		return nil
	}
	for _, r := range rows {
		if r == nil || r.RunID == "" {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin bulk insert: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO yield_rows (
			run_id, row_index, address, balance, yield, split
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, r := range rows {
		if _, err := tx.Exec(ctx, query,
			r.RunID,
			r.RowIndex,
			r.Address,
			r.Balance,
			r.Yield,
			r.Split,
		); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert yield row %d: %w", r.RowIndex, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit bulk insert: %w", err)
	}
	return nil
}

// GetByRunID retrieves all rows of a run, ordered by row_index ASC.
func (s *YieldRowStore) GetByRunID(ctx context.Context, runID string) ([]*domain.YieldRow, error) {
	query := `
		SELECT run_id, row_index, address, balance, yield, split, created_at
		FROM yield_rows
		WHERE run_id = $1
		ORDER BY row_index ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get yield rows: %w", err)
	}
	defer rows.Close()

	var out []*domain.YieldRow
	for rows.Next() {
		r, err := scanYieldRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan yield row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate yield rows: %w", err)
	}
	return out, nil
}

// scanYieldRow scans a single yield row.
func scanYieldRow(row pgx.Row) (*domain.YieldRow, error) {
	var r domain.YieldRow
	err := row.Scan(
		&r.RunID,
		&r.RowIndex,
		&r.Address,
		&r.Balance,
		&r.Yield,
		&r.Split,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
