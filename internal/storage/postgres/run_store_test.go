package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xrpl-airdrop/internal/domain"
	"xrpl-airdrop/internal/storage"
)

func makeTestRun(runID string, startedAt int64) *domain.RunRecord {
	return &domain.RunRecord{
		RunID:            runID,
		IssuerAddress:    "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh",
		IssuedCurrency:   "XNET",
		YieldingCurrency: "XRP",
		Budget:           "1000",
		Sum:              "1234.567890123456789",
		Ratio:            "0.81",
		Fetched:          42,
		Filtered:         3,
		StartedAt:        startedAt,
		ElapsedMs:        95000,
	}
}

func TestRunStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunStore(pool)
	ctx := context.Background()

	run := makeTestRun("run-1", time.Now().UnixMilli())
	require.NoError(t, store.Insert(ctx, run))

	got, err := store.GetByID(ctx, "run-1")
	require.NoError(t, err)

	assert.Equal(t, run.RunID, got.RunID)
	assert.Equal(t, run.IssuerAddress, got.IssuerAddress)
	assert.Equal(t, run.IssuedCurrency, got.IssuedCurrency)
	assert.Equal(t, run.YieldingCurrency, got.YieldingCurrency)
	// Monetary strings must come back byte for byte
	assert.Equal(t, run.Budget, got.Budget)
	assert.Equal(t, run.Sum, got.Sum)
	assert.Equal(t, run.Ratio, got.Ratio)
	assert.Equal(t, run.Fetched, got.Fetched)
	assert.Equal(t, run.Filtered, got.Filtered)
	assert.Equal(t, run.StartedAt, got.StartedAt)
	assert.Equal(t, run.ElapsedMs, got.ElapsedMs)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestRunStore_DuplicateKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunStore(pool)
	ctx := context.Background()

	run := makeTestRun("run-dup", time.Now().UnixMilli())
	require.NoError(t, store.Insert(ctx, run))

	err := store.Insert(ctx, run)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestRunStore_GetNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunStore(pool)

	_, err := store.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRunStore_InvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunStore(pool)
	ctx := context.Background()

	assert.ErrorIs(t, store.Insert(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Insert(ctx, &domain.RunRecord{}), storage.ErrInvalidInput)
}

func TestRunStore_ListOrdering(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunStore(pool)
	ctx := context.Background()

	base := time.Now().UnixMilli()
	// Insert out of chronological order
	require.NoError(t, store.Insert(ctx, makeTestRun("run-c", base+2000)))
	require.NoError(t, store.Insert(ctx, makeTestRun("run-a", base)))
	require.NoError(t, store.Insert(ctx, makeTestRun("run-b", base+1000)))

	runs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)

	assert.Equal(t, "run-a", runs[0].RunID)
	assert.Equal(t, "run-b", runs[1].RunID)
	assert.Equal(t, "run-c", runs[2].RunID)
}
