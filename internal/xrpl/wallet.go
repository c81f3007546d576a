package xrpl

import (
	"crypto/ed25519"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // ledger account IDs are defined over RIPEMD-160
)

// ErrUnsupportedAlgorithm is returned for seeds whose signing scheme this
// process cannot derive keys for. Such seeds still pass checksum
// validation and can be used with server-side signing.
var ErrUnsupportedAlgorithm = errors.New("unsupported key algorithm")

// Wallet holds the sender identity for a distribution run. For ed25519
// seeds the key pair and classic address are derived locally; secp256k1
// seeds are validated but not derived.
type Wallet struct {
	Seed      string
	Algorithm KeyAlgorithm
	Address   string

	publicKey  ed25519.PublicKey
	privateKey ed25519.PrivateKey
}

// WalletFromSeed validates the seed and, for ed25519 seeds, derives the
// key pair and classic address.
func WalletFromSeed(seed string) (*Wallet, error) {
	entropy, algorithm, err := DecodeSeed(seed)
	if err != nil {
		return nil, err
	}

	w := &Wallet{Seed: seed, Algorithm: algorithm}
	if algorithm != AlgorithmED25519 {
		return w, nil
	}

	// Ledger convention: the ed25519 signing seed is SHA-512Half of the
	// decoded entropy.
	digest := sha512.Sum512(entropy)
	w.privateKey = ed25519.NewKeyFromSeed(digest[:32])
	w.publicKey = w.privateKey.Public().(ed25519.PublicKey)

	if err := validateCurvePoint(w.publicKey); err != nil {
		return nil, err
	}

	w.Address, err = EncodeAddress(accountIDFromKey(w.publicKey))
	if err != nil {
		return nil, err
	}
	return w, nil
}

// CanSign reports whether local key material is available.
func (w *Wallet) CanSign() bool {
	return w.privateKey != nil
}

// PublicKey returns the derived verification key, nil when CanSign is false.
func (w *Wallet) PublicKey() ed25519.PublicKey {
	return w.publicKey
}

// validateCurvePoint rejects keys that do not decode to a point on the
// edwards25519 curve.
func validateCurvePoint(pub ed25519.PublicKey) error {
	if len(pub) != ed25519.PublicKeySize {
		return fmt.Errorf("public key must be %d bytes", ed25519.PublicKeySize)
	}
	if _, err := new(edwards25519.Point).SetBytes(pub); err != nil {
		return fmt.Errorf("public key is not on curve: %w", err)
	}
	return nil
}

// accountIDFromKey computes the 20-byte account ID:
// RIPEMD-160(SHA-256(0xED || public key)).
func accountIDFromKey(pub ed25519.PublicKey) []byte {
	prefixed := append([]byte{0xED}, pub...)
	sha := sha256.Sum256(prefixed)
	h := ripemd160.New()
	h.Write(sha[:])
	return h.Sum(nil)
}
