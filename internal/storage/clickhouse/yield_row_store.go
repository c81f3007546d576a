package clickhouse

import (
	"context"
	"fmt"
	"time"

	"xrpl-airdrop/internal/domain"
	"xrpl-airdrop/internal/storage"
)

// YieldRowStore implements storage.YieldRowStore using ClickHouse.
type YieldRowStore struct {
	conn *Conn
}

// NewYieldRowStore creates a new YieldRowStore.
func NewYieldRowStore(conn *Conn) *YieldRowStore {
	return &YieldRowStore{conn: conn}
}

// Compile-time interface check.
var _ storage.YieldRowStore = (*YieldRowStore)(nil)

// InsertBulk adds every row of a run in one batch. Fails the entire batch
// on duplicate (run_id, row_index). MergeTree does not enforce uniqueness
// at insert time, so duplicates are checked explicitly before the batch.
func (s *YieldRowStore) InsertBulk(ctx context.Context, rows []*domain.YieldRow) error {
	if len(rows) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		runID    string
		rowIndex int
	}
	seen := make(map[key]struct{})
	for _, r := range rows {
		if r == nil || r.RunID == "" {
			return storage.ErrInvalidInput
		}
		k := key{r.RunID, r.RowIndex}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, r := range rows {
		exists, err := s.exists(ctx, r.RunID, r.RowIndex)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO yield_rows (
			run_id, row_index, address, balance, yield, split
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range rows {
		err = batch.Append(
			r.RunID, uint32(r.RowIndex),
			r.Address, r.Balance, r.Yield, r.Split,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRunID retrieves all rows of a run, ordered by row_index ASC.
func (s *YieldRowStore) GetByRunID(ctx context.Context, runID string) ([]*domain.YieldRow, error) {
	query := `
		SELECT run_id, row_index, address, balance, yield, split, created_at
		FROM yield_rows
		WHERE run_id = ?
		ORDER BY row_index ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query by run id: %w", err)
	}
	defer rows.Close()

	return scanYieldRows(rows)
}

// exists checks if a row with the given key exists.
func (s *YieldRowStore) exists(ctx context.Context, runID string, rowIndex int) (bool, error) {
	query := `
		SELECT count(*) FROM yield_rows
		WHERE run_id = ? AND row_index = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, runID, uint32(rowIndex)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// chRows is the subset of driver.Rows the scanners need.
type chRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// scanYieldRows scans multiple rows.
func scanYieldRows(rows chRows) ([]*domain.YieldRow, error) {
	var out []*domain.YieldRow

	for rows.Next() {
		var r domain.YieldRow
		var rowIndex uint32
		var createdAt time.Time

		err := rows.Scan(
			&r.RunID, &rowIndex,
			&r.Address, &r.Balance, &r.Yield, &r.Split,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan yield row: %w", err)
		}

		r.RowIndex = int(rowIndex)
		r.CreatedAt = createdAt

		out = append(out, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate yield rows: %w", err)
	}

	return out, nil
}
