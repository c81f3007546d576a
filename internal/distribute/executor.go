// Package distribute submits one payment per validated yield row.
package distribute

import (
	"context"
	"errors"
	"fmt"
	"log"

	"xrpl-airdrop/internal/domain"
	"xrpl-airdrop/internal/xrpl"
)

// Executor errors.
var (
	ErrWalletSet = errors.New("wallet already registered")
	ErrNoWallet  = errors.New("no wallet registered")
	ErrNoSender  = errors.New("sender address unknown")
)

// Submitter signs and submits a single payment. *xrpl.HTTPClient
// implements it.
type Submitter interface {
	Submit(ctx context.Context, secret string, account string, p *xrpl.Payment) (*xrpl.SubmitResult, error)
}

// FailedPayment records one payout that did not go through. The pass
// continues past failures; they are reported together at the end.
type FailedPayment struct {
	Destination string
	Amount      string
	Err         error
}

// Report is the outcome of one distribution pass.
type Report struct {
	Submitted int
	Failures  []FailedPayment
}

// Executor walks yield rows in file order and submits a payment for each.
// There is no automatic retry inside a pass: a failed payout is a line in
// the failure log for the operator to settle, not a loop.
type Executor struct {
	submitter Submitter
	token     domain.TokenRef
	account   string
	logger    *log.Logger

	wallet *xrpl.Wallet
}

// Options contains configuration for creating an Executor.
type Options struct {
	Submitter Submitter
	Token     domain.TokenRef
	// Account is the sender's classic address. Optional for ed25519
	// seeds, whose address is derived at registration.
	Account string
	Logger  *log.Logger
}

// New creates an Executor without a wallet bound.
func New(opts Options) *Executor {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Executor{
		submitter: opts.Submitter,
		token:     opts.Token,
		account:   opts.Account,
		logger:    logger,
	}
}

// RegisterWallet binds the sender wallet. It succeeds at most once; the
// seed is validated (and for ed25519, the sender address derived) before
// anything is sent.
func (e *Executor) RegisterWallet(seed string) error {
	if e.wallet != nil {
		return ErrWalletSet
	}
	w, err := xrpl.WalletFromSeed(seed)
	if err != nil {
		return fmt.Errorf("register wallet: %w", err)
	}
	if e.account == "" {
		if w.Address == "" {
			return ErrNoSender
		}
		e.account = w.Address
	}
	e.wallet = w
	return nil
}

// Run submits every row's yield to its address. Submission failures and
// rejected engine results are collected; only a cancelled context stops
// the pass early.
func (e *Executor) Run(ctx context.Context, rows []domain.YieldRecord) (*Report, error) {
	if e.wallet == nil {
		return nil, ErrNoWallet
	}

	report := &Report{}
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		payment := &xrpl.Payment{
			Destination: row.Address,
			Amount:      row.Yield,
			Token:       e.token,
		}

		res, err := e.submitter.Submit(ctx, e.wallet.Seed, e.account, payment)
		if err == nil && res.EngineResult != "tesSUCCESS" {
			err = fmt.Errorf("engine result %s: %s", res.EngineResult, res.EngineResultMessage)
		}
		if err != nil {
			e.logger.Printf("Payment to %s failed: %v", row.Address, err)
			report.Failures = append(report.Failures, FailedPayment{
				Destination: row.Address,
				Amount:      row.Yield.String(),
				Err:         err,
			})
			continue
		}
		report.Submitted++
	}

	e.logger.Printf("Distribution pass done: %d submitted, %d failed", report.Submitted, len(report.Failures))
	return report, nil
}
