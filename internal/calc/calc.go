// Package calc implements the airdrop budget, sum and ratio arithmetic.
// All values are arbitrary-precision decimals: repeated summation over
// thousands of holder balances must not accumulate floating-point drift
// that would shift payout amounts.
package calc

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Calculation errors. Budget and conversion errors are fatal for the run
// and are never retried: they reflect operator input, not transient state.
var (
	// ErrBudgetSet is returned when the budget has already been bound.
	ErrBudgetSet = errors.New("budget already set")

	// ErrOutOfRange is returned for a budget outside (0, 1e17].
	ErrOutOfRange = errors.New("budget out of range")

	// ErrNotANumber is returned when budget input cannot be parsed.
	ErrNotANumber = errors.New("budget is not a number")

	// ErrNoBudget is returned when a ratio is requested before a budget is set.
	ErrNoBudget = errors.New("budget not set")

	// ErrZeroSum is returned when no holder carries any yielding balance.
	// This is a legitimate terminal condition, not a bug.
	ErrZeroSum = errors.New("trustline sum is zero")

	// ErrNoRatio is returned when a yield is requested before the ratio
	// has been calculated.
	ErrNoRatio = errors.New("ratio not calculated")
)

// MaxBudget is the largest accepted airdrop budget.
var MaxBudget = decimal.RequireFromString("100000000000000000")

func init() {
	// Ratio divisions must carry enough digits that yield rows re-sum
	// exactly during validation.
	if decimal.DivisionPrecision < 18 {
		decimal.DivisionPrecision = 18
	}
}

// Calculator holds the numeric state of one airdrop run: the write-once
// budget, the running trustline sum and the derived ratio. It replaces the
// process-wide globals of earlier revisions; construct one per run.
//
// Calculator is not safe for concurrent use. Summation happens in a single
// pass after the fetch phase completes, so no synchronization is needed.
type Calculator struct {
	budget    decimal.Decimal
	budgetSet bool
	sum       decimal.Decimal
	ratio     decimal.Decimal
	ratioSet  bool
}

// New creates a Calculator with a zero sum and no budget bound.
func New() *Calculator {
	return &Calculator{}
}

// ParseBudget converts operator input into a decimal budget.
// Conversion failures are decided here, once, at the boundary.
func ParseBudget(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrNotANumber, s)
	}
	return d, nil
}

// SetBudget binds the airdrop budget. It succeeds at most once per run;
// a second call fails with ErrBudgetSet and leaves the first value intact.
// The budget must satisfy 0 < budget <= 1e17.
func (c *Calculator) SetBudget(amount decimal.Decimal) error {
	if c.budgetSet {
		return ErrBudgetSet
	}
	if amount.Sign() <= 0 {
		return fmt.Errorf("%w: %s must be larger than 0", ErrOutOfRange, amount)
	}
	if amount.GreaterThan(MaxBudget) {
		return fmt.Errorf("%w: %s exceeds maximum %s", ErrOutOfRange, amount, MaxBudget)
	}
	c.budget = amount
	c.budgetSet = true
	return nil
}

// Budget returns the bound budget and whether one has been set.
func (c *Calculator) Budget() (decimal.Decimal, bool) {
	return c.budget, c.budgetSet
}

// IncrementSum adds the given balances to the running trustline sum.
func (c *Calculator) IncrementSum(amounts ...decimal.Decimal) {
	for _, a := range amounts {
		c.sum = c.sum.Add(a)
	}
}

// Sum returns the current trustline sum.
func (c *Calculator) Sum() decimal.Decimal {
	return c.sum
}

// Ratio derives and returns ratio = budget / sum. It fails with ErrNoBudget
// if no budget is bound and with ErrZeroSum if the sum is zero.
func (c *Calculator) Ratio() (decimal.Decimal, error) {
	if !c.budgetSet {
		return decimal.Decimal{}, ErrNoBudget
	}
	if c.sum.IsZero() {
		return decimal.Decimal{}, ErrZeroSum
	}
	c.ratio = c.budget.Div(c.sum)
	c.ratioSet = true
	return c.ratio, nil
}

// YieldFor returns balance * ratio for a single holder.
// It fails with ErrNoRatio until Ratio has succeeded.
func (c *Calculator) YieldFor(balance decimal.Decimal) (decimal.Decimal, error) {
	if !c.ratioSet {
		return decimal.Decimal{}, ErrNoRatio
	}
	return balance.Mul(c.ratio), nil
}
