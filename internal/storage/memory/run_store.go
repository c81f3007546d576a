// Package memory provides in-memory store implementations for tests and
// runs that do not need a database.
package memory

import (
	"context"
	"sort"
	"sync"

	"xrpl-airdrop/internal/domain"
	"xrpl-airdrop/internal/storage"
)

// RunStore implements storage.RunStore using an in-memory map.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]*domain.RunRecord
}

// NewRunStore creates a new in-memory RunStore.
func NewRunStore() *RunStore {
	return &RunStore{runs: make(map[string]*domain.RunRecord)}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

// Insert adds a completed run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, r *domain.RunRecord) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[r.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	clone := *r
	s.runs[r.RunID] = &clone
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.runs[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	clone := *r
	return &clone, nil
}

// List retrieves all runs, ordered by started_at ASC.
func (s *RunStore) List(ctx context.Context) ([]*domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.RunRecord, 0, len(s.runs))
	for _, r := range s.runs {
		clone := *r
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt != out[j].StartedAt {
			return out[i].StartedAt < out[j].StartedAt
		}
		return out[i].RunID < out[j].RunID
	})
	return out, nil
}
