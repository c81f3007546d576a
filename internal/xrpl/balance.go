package xrpl

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"xrpl-airdrop/internal/domain"
)

// BalanceService answers "how much of this token does this account hold",
// hiding the two ledger representations: native balances live on the
// account root in drops, issued balances on trustlines.
type BalanceService struct {
	client Client
}

// NewBalanceService wraps a client.
func NewBalanceService(client Client) *BalanceService {
	return &BalanceService{client: client}
}

// Balance returns the account's holding of the given token. A missing
// trustline and a deleted account both read as zero: holders without the
// yielding token simply earn nothing.
func (s *BalanceService) Balance(ctx context.Context, account string, token domain.TokenRef) (decimal.Decimal, error) {
	if token.IsNative() {
		return s.nativeBalance(ctx, account)
	}
	return s.issuedBalance(ctx, account, token)
}

func (s *BalanceService) nativeBalance(ctx context.Context, account string) (decimal.Decimal, error) {
	info, err := s.client.AccountInfo(ctx, account)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Name == "actNotFound" {
			return decimal.Decimal{}, nil
		}
		return decimal.Decimal{}, err
	}
	return DropsToXRP(info.AccountData.Balance)
}

func (s *BalanceService) issuedBalance(ctx context.Context, account string, token domain.TokenRef) (decimal.Decimal, error) {
	req := &AccountLinesRequest{Account: account}
	for {
		page, err := s.client.AccountLines(ctx, req)
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.Name == "actNotFound" {
				return decimal.Decimal{}, nil
			}
			return decimal.Decimal{}, err
		}

		for _, line := range page.Lines {
			if line.Currency != token.Currency {
				continue
			}
			return decimal.NewFromString(line.Balance)
		}

		if len(page.Marker) == 0 {
			return decimal.Decimal{}, nil
		}
		req.Marker = page.Marker
	}
}
