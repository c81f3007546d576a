package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"xrpl-airdrop/internal/domain"
	"xrpl-airdrop/internal/storage"
)

// YieldRowStore implements storage.YieldRowStore using in-memory maps.
type YieldRowStore struct {
	mu   sync.RWMutex
	rows map[string]*domain.YieldRow // keyed by run_id/row_index
}

// NewYieldRowStore creates a new in-memory YieldRowStore.
func NewYieldRowStore() *YieldRowStore {
	return &YieldRowStore{rows: make(map[string]*domain.YieldRow)}
}

// Compile-time interface check.
var _ storage.YieldRowStore = (*YieldRowStore)(nil)

func rowKey(runID string, rowIndex int) string {
	return fmt.Sprintf("%s/%d", runID, rowIndex)
}

// InsertBulk adds every row of a run. Fails the entire batch on any
// duplicate (run_id, row_index); nothing is written on failure.
func (s *YieldRowStore) InsertBulk(ctx context.Context, rows []*domain.YieldRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if r == nil || r.RunID == "" {
			return storage.ErrInvalidInput
		}
		key := rowKey(r.RunID, r.RowIndex)
		if _, exists := s.rows[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, dup := seen[key]; dup {
			return storage.ErrDuplicateKey
		}
		seen[key] = struct{}{}
	}
	for _, r := range rows {
		clone := *r
		s.rows[rowKey(r.RunID, r.RowIndex)] = &clone
	}
	return nil
}

// GetByRunID retrieves all rows of a run, ordered by row_index ASC.
func (s *YieldRowStore) GetByRunID(ctx context.Context, runID string) ([]*domain.YieldRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.YieldRow
	for _, r := range s.rows {
		if r.RunID != runID {
			continue
		}
		clone := *r
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RowIndex < out[j].RowIndex
	})
	return out, nil
}
