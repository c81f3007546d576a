package xrpl

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// One XRP is one million drops. Native balances travel on the wire as
// integer drop strings.
const dropsPerXRP = 6

// ErrBadDrops is returned for drop values that are not non-negative integers.
var ErrBadDrops = errors.New("invalid drops value")

// DropsToXRP converts a drops string into an XRP decimal.
func DropsToXRP(drops string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(drops)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrBadDrops, drops)
	}
	if !d.IsInteger() || d.Sign() < 0 {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrBadDrops, drops)
	}
	return d.Shift(-dropsPerXRP), nil
}

// XRPToDrops converts an XRP amount into an integer drops string.
// Amounts with sub-drop precision are rejected rather than rounded; callers
// paying computed amounts quantize with TruncateDrops first.
func XRPToDrops(xrp decimal.Decimal) (string, error) {
	drops := xrp.Shift(dropsPerXRP)
	if !drops.IsInteger() {
		return "", fmt.Errorf("%w: %s has sub-drop precision", ErrBadDrops, xrp)
	}
	if drops.Sign() < 0 {
		return "", fmt.Errorf("%w: negative amount %s", ErrBadDrops, xrp)
	}
	return drops.String(), nil
}

// Issued-token amounts carry at most 15 significant decimal digits on the
// ledger.
const issuedPrecision = 15

// TruncateDrops quantizes an XRP amount to whole drops, truncating toward
// zero so a payout never exceeds the computed amount.
func TruncateDrops(xrp decimal.Decimal) decimal.Decimal {
	return xrp.Truncate(dropsPerXRP)
}

// TruncateIssued caps an issued-token amount at the 15 significant digits
// a payment can carry, truncating toward zero.
func TruncateIssued(d decimal.Decimal) decimal.Decimal {
	excess := int32(d.NumDigits()) - issuedPrecision
	if excess <= 0 {
		return d
	}
	return d.RoundDown(-(d.Exponent() + excess))
}
