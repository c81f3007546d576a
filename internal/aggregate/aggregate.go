// Package aggregate turns fetched balances into the final yield table.
package aggregate

import (
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"xrpl-airdrop/internal/calc"
	"xrpl-airdrop/internal/domain"
	"xrpl-airdrop/internal/fetcher"
)

var oneHundred = decimal.NewFromInt(100)

// Aggregator folds a fetch pass into yield records and a run summary.
type Aggregator struct {
	logger *log.Logger
}

// Options contains configuration for creating an Aggregator.
type Options struct {
	Logger *log.Logger
}

// New creates an Aggregator.
func New(opts Options) *Aggregator {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Aggregator{logger: logger}
}

// Aggregate computes every holder's yield. Holders drop out of the table
// when their balance could not be fetched or reads as zero; both count as
// filtered. Rows come out in discovery order, independent of the order in
// which fetches completed.
//
// Summation happens here in a single pass, after the fetch phase is done,
// so the sum never depends on worker interleaving.
func (a *Aggregator) Aggregate(holders *domain.HolderSet, fetched *fetcher.Result, c *calc.Calculator, started time.Time) ([]domain.YieldRecord, *domain.RunSummary, error) {
	included := make([]string, 0, holders.Len())
	for _, address := range holders.Addresses() {
		balance, ok := fetched.Balances[address]
		if !ok || balance.IsZero() {
			continue
		}
		c.IncrementSum(balance)
		included = append(included, address)
	}

	ratio, err := c.Ratio()
	if err != nil {
		return nil, nil, fmt.Errorf("derive ratio: %w", err)
	}
	sum := c.Sum()
	hasSplit := sum.GreaterThanOrEqual(decimal.NewFromInt(1))

	rows := make([]domain.YieldRecord, 0, len(included))
	for _, address := range included {
		balance := fetched.Balances[address]
		yield, err := c.YieldFor(balance)
		if err != nil {
			return nil, nil, fmt.Errorf("yield for %s: %w", address, err)
		}

		row := domain.YieldRecord{
			Address: address,
			Balance: balance,
			Yield:   yield,
		}
		if hasSplit {
			row.Split = yield.Div(sum).Mul(oneHundred)
			row.HasSplit = true
		}
		rows = append(rows, row)
	}

	summary := &domain.RunSummary{
		Filtered: holders.Len() - len(rows),
		Fetched:  holders.Len(),
		Sum:      sum,
		Ratio:    ratio,
		Elapsed:  time.Since(started),
	}

	a.logger.Printf("Aggregated %d yield rows (%d filtered of %d fetched)", len(rows), summary.Filtered, summary.Fetched)
	return rows, summary, nil
}
