// Package discovery enumerates the holders of an issued token by walking
// the issuer's trustline set.
package discovery

import (
	"context"
	"fmt"
	"log"

	"xrpl-airdrop/internal/domain"
	"xrpl-airdrop/internal/xrpl"
)

// Scanner walks an issuer's account_lines pages and collects the accounts
// holding a trustline for the issued currency.
type Scanner struct {
	client    xrpl.Client
	pageLimit int
	logger    *log.Logger
}

// ScannerOptions contains configuration for creating a Scanner.
type ScannerOptions struct {
	Client    xrpl.Client
	PageLimit int // trustlines per page, 0 for server default
	Logger    *log.Logger
}

// NewScanner creates a new trustline scanner.
func NewScanner(opts ScannerOptions) *Scanner {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Scanner{
		client:    opts.Client,
		pageLimit: opts.PageLimit,
		logger:    logger,
	}
}

// Scan returns every unique holder of the issued token, in the order the
// ledger returns them. Pagination follows the opaque marker until the
// server stops sending one; the full set reflects a single pass over the
// validated ledger.
func (s *Scanner) Scan(ctx context.Context, token domain.TokenRef) (*domain.HolderSet, error) {
	if token.IsNative() {
		return nil, fmt.Errorf("native token has no trustlines to scan")
	}

	holders := domain.NewHolderSet()
	req := &xrpl.AccountLinesRequest{
		Account: token.Issuer,
		Limit:   s.pageLimit,
	}

	pages := 0
	for {
		page, err := s.client.AccountLines(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("account_lines page %d: %w", pages+1, err)
		}
		pages++

		for _, line := range page.Lines {
			if line.Currency != token.Currency {
				continue
			}
			holders.Add(line.Account)
		}

		if len(page.Marker) == 0 {
			break
		}
		req.Marker = page.Marker
	}

	s.logger.Printf("Discovered %d holders of %s across %d pages", holders.Len(), token.Display(), pages)
	return holders, nil
}
