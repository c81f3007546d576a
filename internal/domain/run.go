package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// YieldRecord is one computed payout row.
// Split is yield over the trustline sum as a percentage; it is populated
// only when the trustline sum is at least 1.
type YieldRecord struct {
	Address  string
	Balance  decimal.Decimal
	Yield    decimal.Decimal
	Split    decimal.Decimal
	HasSplit bool
}

// RunSummary is the companion metadata recorded next to the row file.
//
// Filtered counts holders that were discovered but excluded from the final
// yield table for any reason: zero yielding balance or a dead-lettered
// balance fetch. The invariant Fetched - len(rows) == Filtered holds by
// construction and is re-checked before distribution.
type RunSummary struct {
	Filtered int
	Fetched  int
	Sum      decimal.Decimal
	Ratio    decimal.Decimal
	Elapsed  time.Duration
}

// YieldRow is the archival form of one payout row. Monetary fields are
// exact decimal strings; parse them back with decimal.NewFromString when
// arithmetic is needed.
type YieldRow struct {
	RunID     string
	RowIndex  int
	Address   string
	Balance   string
	Yield     string
	Split     string // empty when the run produced no splits
	CreatedAt time.Time
}

// RunRecord is the archival form of a completed calculation run.
// Monetary fields are kept as exact decimal strings.
type RunRecord struct {
	RunID            string
	IssuerAddress    string
	IssuedCurrency   string
	YieldingCurrency string
	Budget           string
	Sum              string
	Ratio            string
	Fetched          int
	Filtered         int
	StartedAt        int64 // unix milliseconds
	ElapsedMs        int64
	CreatedAt        time.Time
}
