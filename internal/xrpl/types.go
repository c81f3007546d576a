// Package xrpl provides the XRP Ledger network clients used by the airdrop:
// trustline listing, account balance queries and payment submission.
package xrpl

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"

	"xrpl-airdrop/internal/domain"
)

// Validated requests results from the last validated ledger.
const Validated = "validated"

// Client is the query surface the airdrop core depends on. Both the
// WebSocket and the JSON-RPC implementations satisfy it.
type Client interface {
	// AccountLines returns one page of trustlines for an account.
	// The caller follows Marker pagination to exhaustion.
	AccountLines(ctx context.Context, req *AccountLinesRequest) (*AccountLinesResult, error)

	// AccountInfo returns account root data, including the native balance
	// in drops.
	AccountInfo(ctx context.Context, account string) (*AccountInfoResult, error)

	// Close releases the underlying connection.
	Close() error
}

// AccountLinesRequest selects a page of an account's trustline set.
type AccountLinesRequest struct {
	Account     string
	LedgerIndex string          // defaults to Validated when empty
	Marker      json.RawMessage // opaque pagination cursor from the prior page
	Limit       int             // 0 means server default
}

// TrustLine is a single entry of an account_lines response.
type TrustLine struct {
	Account  string `json:"account"`
	Currency string `json:"currency"`
	Balance  string `json:"balance"`
}

// AccountLinesResult is one page of trustlines. A non-nil Marker means
// further pages exist.
type AccountLinesResult struct {
	Account     string          `json:"account"`
	Lines       []TrustLine     `json:"lines"`
	LedgerIndex int64           `json:"ledger_index"`
	Marker      json.RawMessage `json:"marker,omitempty"`
}

// AccountInfoResult carries the account root fields the airdrop reads.
type AccountInfoResult struct {
	AccountData struct {
		Account string `json:"Account"`
		Balance string `json:"Balance"` // native balance in drops
	} `json:"account_data"`
	LedgerIndex int64 `json:"ledger_index"`
}

// Payment describes one payout submission.
type Payment struct {
	Destination string
	Amount      decimal.Decimal
	Token       domain.TokenRef
}

// SubmitResult reports the engine outcome of a submitted transaction.
type SubmitResult struct {
	EngineResult        string `json:"engine_result"`
	EngineResultMessage string `json:"engine_result_message"`
	Accepted            bool   `json:"accepted"`
}

// amountJSON renders a payment amount in transaction format: a drops
// string for XRP, an object for issued tokens. Computed yields carry more
// precision than the ledger accepts, so amounts are truncated down here;
// a payout never exceeds its yield.
func amountJSON(amount decimal.Decimal, token domain.TokenRef) (interface{}, error) {
	if token.IsNative() {
		drops, err := XRPToDrops(TruncateDrops(amount))
		if err != nil {
			return nil, err
		}
		return drops, nil
	}
	return map[string]string{
		"currency": token.Currency,
		"issuer":   token.Issuer,
		"value":    TruncateIssued(amount).String(),
	}, nil
}
