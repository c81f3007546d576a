// Package orchestrator coordinates one calculation run end to end.
// Flow: discovery → balance fetch → aggregation → bundle write → archive
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"xrpl-airdrop/internal/aggregate"
	"xrpl-airdrop/internal/bundle"
	"xrpl-airdrop/internal/calc"
	"xrpl-airdrop/internal/discovery"
	"xrpl-airdrop/internal/domain"
	"xrpl-airdrop/internal/fetcher"
	"xrpl-airdrop/internal/idhash"
	"xrpl-airdrop/internal/storage"
	"xrpl-airdrop/internal/xrpl"
)

// Orchestrator runs the calculation phases in order. The plain-text bundle
// is the authoritative output; archive failures downgrade to warnings.
type Orchestrator struct {
	pool          *xrpl.Pool
	issuedToken   domain.TokenRef
	yieldingToken domain.TokenRef
	budget        decimal.Decimal
	outputDir     string
	pageLimit     int
	workers       int

	runStore       storage.RunStore
	yieldRowStores []storage.YieldRowStore

	logger *log.Logger
}

// Options for creating Orchestrator.
type Options struct {
	// Required
	Pool          *xrpl.Pool
	IssuedToken   domain.TokenRef // token whose trustlines define the holder set
	YieldingToken domain.TokenRef // token whose balances weight the payout
	Budget        decimal.Decimal
	OutputDir     string

	// Tuning
	PageLimit int // trustlines per account_lines page, 0 for server default
	Workers   int // concurrent balance fetchers, 0 for fetcher default

	// Optional archives
	RunStore       storage.RunStore
	YieldRowStores []storage.YieldRowStore

	Logger *log.Logger
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{
		pool:           opts.Pool,
		issuedToken:    opts.IssuedToken,
		yieldingToken:  opts.YieldingToken,
		budget:         opts.Budget,
		outputDir:      opts.OutputDir,
		pageLimit:      opts.PageLimit,
		workers:        opts.Workers,
		runStore:       opts.RunStore,
		yieldRowStores: opts.YieldRowStores,
		logger:         logger,
	}
}

// RunResult contains results from one calculation run.
type RunResult struct {
	RunID       string
	Holders     int
	Rows        int
	Filtered    int
	DeadLetters int
	Sum         decimal.Decimal
	Ratio       decimal.Decimal
	OutputDir   string
	Warnings    []string
}

// Run executes the full calculation.
// Phases:
//  1. Discover holders over the issuer's trustlines
//  2. Fetch every holder's yielding balance
//  3. Aggregate balances into the yield table
//  4. Write the result bundle
//  5. Archive the run (optional)
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	started := time.Now()
	result := &RunResult{OutputDir: o.outputDir}

	c := calc.New()
	if err := c.SetBudget(o.budget); err != nil {
		return nil, fmt.Errorf("bind budget: %w", err)
	}

	// Phase 1: Discovery
	o.logger.Printf("Phase 1: Discovering holders of %s...", o.issuedToken.Display())
	holders, err := o.discoverHolders(ctx)
	if err != nil {
		return nil, fmt.Errorf("phase 1 (discovery) failed: %w", err)
	}
	result.Holders = holders.Len()
	if holders.Len() == 0 {
		return nil, fmt.Errorf("no holders found for %s", o.issuedToken.Display())
	}

	// Phase 2: Balance fetch
	o.logger.Printf("Phase 2: Fetching %s balances for %d holders...", o.yieldingToken.Display(), holders.Len())
	f := fetcher.New(fetcher.Options{
		Pool:    o.pool,
		Workers: o.workers,
		Logger:  o.logger,
	})
	fetched, err := f.FetchAll(ctx, holders.Addresses(), o.yieldingToken)
	if err != nil {
		return nil, fmt.Errorf("phase 2 (balance fetch) failed: %w", err)
	}
	result.DeadLetters = len(fetched.DeadLetters)
	for _, dl := range fetched.DeadLetters {
		result.Warnings = append(result.Warnings, fmt.Sprintf("balance of %s unavailable after %d attempts: %v", dl.Address, dl.Attempts, dl.Err))
	}

	// Phase 3: Aggregation
	o.logger.Printf("Phase 3: Computing yields...")
	rows, summary, err := aggregate.New(aggregate.Options{Logger: o.logger}).
		Aggregate(holders, fetched, c, started)
	if err != nil {
		return nil, fmt.Errorf("phase 3 (aggregation) failed: %w", err)
	}
	result.Rows = len(rows)
	result.Filtered = summary.Filtered
	result.Sum = summary.Sum
	result.Ratio = summary.Ratio

	// Phase 4: Bundle write
	o.logger.Printf("Phase 4: Writing result bundle to %s...", o.outputDir)
	// The balance column is the yielding token's: that is what the rows weigh.
	b := &bundle.Bundle{
		TokenName: o.yieldingToken.Display(),
		Rows:      rows,
		Summary:   *summary,
	}
	if err := b.Write(o.outputDir); err != nil {
		return nil, fmt.Errorf("phase 4 (bundle write) failed: %w", err)
	}

	// Phase 5: Archive
	result.RunID = idhash.ComputeRunID(
		o.issuedToken.Issuer,
		o.issuedToken.Currency,
		o.yieldingToken.Currency,
		started.UnixMilli(),
	)
	if o.runStore != nil || len(o.yieldRowStores) > 0 {
		o.logger.Printf("Phase 5: Archiving run %s...", result.RunID)
		o.archive(ctx, result, rows, summary, started)
	}

	o.logger.Printf("Run completed: %d holders, %d rows, %d filtered, %d dead letters",
		result.Holders, result.Rows, result.Filtered, result.DeadLetters)
	return result, nil
}

// discoverHolders scans trustlines using a pooled client.
func (o *Orchestrator) discoverHolders(ctx context.Context) (*domain.HolderSet, error) {
	client, err := o.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer o.pool.Release(client)

	scanner := discovery.NewScanner(discovery.ScannerOptions{
		Client:    client,
		PageLimit: o.pageLimit,
		Logger:    o.logger,
	})
	return scanner.Scan(ctx, o.issuedToken)
}

// archive persists the run record and yield rows. Failures never abort the
// run: the bundle on disk already carries the authoritative result.
func (o *Orchestrator) archive(ctx context.Context, result *RunResult, rows []domain.YieldRecord, summary *domain.RunSummary, started time.Time) {
	if o.runStore != nil {
		record := &domain.RunRecord{
			RunID:            result.RunID,
			IssuerAddress:    o.issuedToken.Issuer,
			IssuedCurrency:   o.issuedToken.Currency,
			YieldingCurrency: o.yieldingToken.Currency,
			Budget:           o.budget.String(),
			Sum:              summary.Sum.String(),
			Ratio:            summary.Ratio.String(),
			Fetched:          summary.Fetched,
			Filtered:         summary.Filtered,
			StartedAt:        started.UnixMilli(),
			ElapsedMs:        summary.Elapsed.Milliseconds(),
		}
		if err := o.runStore.Insert(ctx, record); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				result.Warnings = append(result.Warnings, fmt.Sprintf("run %s already archived", result.RunID))
			} else {
				result.Warnings = append(result.Warnings, fmt.Sprintf("archive run record: %v", err))
			}
		}
	}

	archivalRows := make([]*domain.YieldRow, len(rows))
	for i, r := range rows {
		row := &domain.YieldRow{
			RunID:    result.RunID,
			RowIndex: i,
			Address:  r.Address,
			Balance:  r.Balance.String(),
			Yield:    r.Yield.String(),
		}
		if r.HasSplit {
			row.Split = r.Split.String()
		}
		archivalRows[i] = row
	}

	for _, store := range o.yieldRowStores {
		if err := store.InsertBulk(ctx, archivalRows); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				result.Warnings = append(result.Warnings, fmt.Sprintf("yield rows of run %s already archived", result.RunID))
				continue
			}
			result.Warnings = append(result.Warnings, fmt.Sprintf("archive yield rows: %v", err))
		}
	}
}
