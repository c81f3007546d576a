package xrpl

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// The XRP Ledger uses its own base58 dictionary, chosen so account
// addresses start with "r" and seeds with "s".
const rippleDictionary = "rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz"

var rippleAlphabet = base58.NewAlphabet(rippleDictionary)

// Version prefixes for base58check payloads.
var (
	accountPrefix     = []byte{0x00}             // classic address, "r..."
	familySeedPrefix  = []byte{0x21}             // secp256k1 seed, "s..."
	ed25519SeedPrefix = []byte{0x01, 0xE1, 0x4B} // ed25519 seed, "sEd..."
)

// KeyAlgorithm identifies the signing scheme a seed belongs to.
type KeyAlgorithm int

const (
	AlgorithmSecp256k1 KeyAlgorithm = iota
	AlgorithmED25519
)

func (a KeyAlgorithm) String() string {
	switch a {
	case AlgorithmSecp256k1:
		return "secp256k1"
	case AlgorithmED25519:
		return "ed25519"
	default:
		return "unknown"
	}
}

// Codec errors.
var (
	ErrBadEncoding = errors.New("not a valid base58check string")
	ErrBadChecksum = errors.New("checksum mismatch")
	ErrBadAddress  = errors.New("not a classic address")
	ErrBadSeed     = errors.New("not a valid seed")
)

// checksum is the first four bytes of double SHA-256.
func checksum(payload []byte) []byte {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	return second[:4]
}

// encodeBase58Check prepends the version prefix and appends the checksum.
func encodeBase58Check(prefix, payload []byte) string {
	buf := make([]byte, 0, len(prefix)+len(payload)+4)
	buf = append(buf, prefix...)
	buf = append(buf, payload...)
	buf = append(buf, checksum(buf)...)
	return base58.EncodeAlphabet(buf, rippleAlphabet)
}

// decodeBase58Check decodes and verifies the trailing checksum, returning
// the versioned payload (prefix still attached).
func decodeBase58Check(s string) ([]byte, error) {
	raw, err := base58.DecodeAlphabet(s, rippleAlphabet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadEncoding, err)
	}
	if len(raw) < 5 {
		return nil, fmt.Errorf("%w: too short", ErrBadEncoding)
	}
	payload, sum := raw[:len(raw)-4], raw[len(raw)-4:]
	if !bytes.Equal(checksum(payload), sum) {
		return nil, ErrBadChecksum
	}
	return payload, nil
}

// EncodeAddress renders a 20-byte account ID as a classic address.
func EncodeAddress(accountID []byte) (string, error) {
	if len(accountID) != 20 {
		return "", fmt.Errorf("%w: account ID must be 20 bytes", ErrBadAddress)
	}
	return encodeBase58Check(accountPrefix, accountID), nil
}

// DecodeAddress parses a classic address into its 20-byte account ID.
func DecodeAddress(address string) ([]byte, error) {
	payload, err := decodeBase58Check(address)
	if err != nil {
		return nil, err
	}
	if len(payload) != 21 || payload[0] != accountPrefix[0] {
		return nil, ErrBadAddress
	}
	return payload[1:], nil
}

// ValidateAddress reports whether s is a well-formed classic address.
func ValidateAddress(s string) error {
	_, err := DecodeAddress(s)
	return err
}

// EncodeSeed renders 16 bytes of entropy as a seed string for the given
// algorithm.
func EncodeSeed(entropy []byte, algorithm KeyAlgorithm) (string, error) {
	if len(entropy) != 16 {
		return "", fmt.Errorf("%w: entropy must be 16 bytes", ErrBadSeed)
	}
	switch algorithm {
	case AlgorithmED25519:
		return encodeBase58Check(ed25519SeedPrefix, entropy), nil
	case AlgorithmSecp256k1:
		return encodeBase58Check(familySeedPrefix, entropy), nil
	default:
		return "", fmt.Errorf("%w: unknown algorithm", ErrBadSeed)
	}
}

// DecodeSeed parses a seed string into its entropy and key algorithm.
func DecodeSeed(seed string) ([]byte, KeyAlgorithm, error) {
	payload, err := decodeBase58Check(seed)
	if err != nil {
		return nil, 0, err
	}
	switch {
	case len(payload) == 19 && bytes.Equal(payload[:3], ed25519SeedPrefix):
		return payload[3:], AlgorithmED25519, nil
	case len(payload) == 17 && payload[0] == familySeedPrefix[0]:
		return payload[1:], AlgorithmSecp256k1, nil
	default:
		return nil, 0, ErrBadSeed
	}
}
