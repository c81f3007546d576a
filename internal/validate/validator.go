// Package validate gates distribution behind integrity checks of a loaded
// result bundle. Every check is exact decimal arithmetic; a single altered
// row or metadata line aborts the run before any payment goes out.
package validate

import (
	"errors"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"xrpl-airdrop/internal/bundle"
	"xrpl-airdrop/internal/calc"
)

// Validation errors.
var (
	ErrWrongState    = errors.New("validation step out of order")
	ErrAborted       = errors.New("validation aborted")
	ErrCountMismatch = errors.New("row count does not match metadata")
	ErrSumMismatch   = errors.New("row sum does not match metadata")
	ErrRatioMismatch = errors.New("ratio does not match metadata")
)

// State tracks validation progress. States only ever move forward; a
// failed check parks the validator in StateAborted for good.
type State int

const (
	StateInputLoaded State = iota
	StateCountsValidated
	StateSumValidated
	StateRatioValidated
	StateReadyToPay
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateInputLoaded:
		return "INPUT_LOADED"
	case StateCountsValidated:
		return "COUNTS_VALIDATED"
	case StateSumValidated:
		return "SUM_VALIDATED"
	case StateRatioValidated:
		return "RATIO_VALIDATED"
	case StateReadyToPay:
		return "READY_TO_PAY"
	case StateAborted:
		return "ABORTED"
	default:
		return "UNKNOWN"
	}
}

// Validator walks a loaded bundle through the check sequence. Construct
// one per distribution run.
type Validator struct {
	data   *bundle.Data
	meta   *bundle.Metadata
	budget decimal.Decimal
	state  State
	logger *log.Logger
}

// Options contains configuration for creating a Validator.
type Options struct {
	Data   *bundle.Data
	Meta   *bundle.Metadata
	Budget decimal.Decimal // operator-supplied, must reproduce the ratio
	Logger *log.Logger
}

// New creates a Validator in StateInputLoaded.
func New(opts Options) *Validator {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Validator{
		data:   opts.Data,
		meta:   opts.Meta,
		budget: opts.Budget,
		state:  StateInputLoaded,
		logger: logger,
	}
}

// State returns the current validation state.
func (v *Validator) State() State {
	return v.state
}

// Run executes every check in order. On success the validator is in
// StateReadyToPay; any failure leaves it in StateAborted.
func (v *Validator) Run() error {
	if err := v.ValidateCounts(); err != nil {
		return err
	}
	if err := v.ValidateSum(); err != nil {
		return err
	}
	if err := v.ValidateRatio(); err != nil {
		return err
	}
	v.state = StateReadyToPay
	v.logger.Printf("Bundle validated: %d rows ready to pay", len(v.data.Rows))
	return nil
}

// ValidateCounts checks that the row count accounts for every fetched
// holder: fetched - rows must equal the reported filtered count.
func (v *Validator) ValidateCounts() error {
	if err := v.require(StateInputLoaded); err != nil {
		return err
	}
	if diff := v.meta.Fetched - len(v.data.Rows); diff != v.meta.Filtered {
		return v.abort(fmt.Errorf("%w: %d fetched - %d rows = %d, metadata says %d filtered",
			ErrCountMismatch, v.meta.Fetched, len(v.data.Rows), diff, v.meta.Filtered))
	}
	v.state = StateCountsValidated
	return nil
}

// ValidateSum re-adds every row balance and compares it to the recorded
// trustline sum. Exact equality only; close is tampered.
func (v *Validator) ValidateSum() error {
	if err := v.require(StateCountsValidated); err != nil {
		return err
	}
	var sum decimal.Decimal
	for _, row := range v.data.Rows {
		sum = sum.Add(row.Balance)
	}
	if !sum.Equal(v.meta.Sum) {
		return v.abort(fmt.Errorf("%w: rows add to %s, metadata says %s", ErrSumMismatch, sum, v.meta.Sum))
	}
	v.state = StateSumValidated
	return nil
}

// ValidateRatio re-derives budget / sum through the same arithmetic the
// calculation phase used and compares it to the recorded ratio. The
// operator must supply the same budget the calculation ran with.
func (v *Validator) ValidateRatio() error {
	if err := v.require(StateSumValidated); err != nil {
		return err
	}

	c := calc.New()
	if err := c.SetBudget(v.budget); err != nil {
		return v.abort(fmt.Errorf("%w: %v", ErrRatioMismatch, err))
	}
	c.IncrementSum(v.meta.Sum)
	ratio, err := c.Ratio()
	if err != nil {
		return v.abort(fmt.Errorf("%w: %v", ErrRatioMismatch, err))
	}
	if !ratio.Equal(v.meta.Ratio) {
		return v.abort(fmt.Errorf("%w: %s / %s = %s, metadata says %s",
			ErrRatioMismatch, v.budget, v.meta.Sum, ratio, v.meta.Ratio))
	}
	v.state = StateRatioValidated
	return nil
}

// require rejects a step run from the wrong state.
func (v *Validator) require(want State) error {
	if v.state == StateAborted {
		return ErrAborted
	}
	if v.state != want {
		return fmt.Errorf("%w: in %s, want %s", ErrWrongState, v.state, want)
	}
	return nil
}

// abort parks the validator permanently.
func (v *Validator) abort(err error) error {
	v.state = StateAborted
	v.logger.Printf("Validation aborted: %v", err)
	return err
}
