// Package domain contains the core airdrop data model shared by all layers.
package domain

import (
	"fmt"
	"strings"
)

// TokenKind discriminates native XRP from issued tokens.
type TokenKind int

const (
	// KindNative is the network's native currency (XRP). It has no issuer.
	KindNative TokenKind = iota
	// KindIssued is a token issued by a specific account.
	KindIssued
)

// NativeCurrency is the currency code of the network's native asset.
const NativeCurrency = "XRP"

// TokenRef identifies a token on the ledger. It is decided once at the
// input boundary and never re-inspected dynamically downstream.
type TokenRef struct {
	Kind     TokenKind
	Issuer   string // empty for native
	Currency string
	Name     string // optional human-readable name, empty if unknown
}

// Native returns the native-currency token reference.
func Native() TokenRef {
	return TokenRef{Kind: KindNative, Currency: NativeCurrency}
}

// Issued returns a token reference for a token issued by the given account.
func Issued(issuer, currency, name string) TokenRef {
	return TokenRef{Kind: KindIssued, Issuer: issuer, Currency: currency, Name: name}
}

// IsNative reports whether the reference is the native currency.
func (t TokenRef) IsNative() bool {
	return t.Kind == KindNative
}

// Display returns the human-readable label used in table headers and
// prompts: the token name when known, otherwise the raw currency code.
func (t TokenRef) Display() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Currency
}

// String implements fmt.Stringer for logs and confirmation output.
func (t TokenRef) String() string {
	if t.IsNative() {
		return NativeCurrency
	}
	if t.Name != "" {
		return fmt.Sprintf("%s (%s)", t.Currency, t.Name)
	}
	return t.Currency
}

// IsNativeCode reports whether a user-supplied currency string means XRP.
func IsNativeCode(code string) bool {
	return strings.EqualFold(code, NativeCurrency)
}
