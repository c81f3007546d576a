package xrpl

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestAddressRoundTrip(t *testing.T) {
	accountID := make([]byte, 20)
	for i := range accountID {
		accountID[i] = byte(i * 7)
	}

	addr, err := EncodeAddress(accountID)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.HasPrefix(addr, "r") {
		t.Errorf("classic address must start with r, got %q", addr)
	}

	decoded, err := DecodeAddress(addr)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(decoded, accountID) {
		t.Errorf("round trip mismatch: %x != %x", decoded, accountID)
	}
}

func TestValidateAddress_Genesis(t *testing.T) {
	// The well-known genesis account address.
	if err := ValidateAddress("rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh"); err != nil {
		t.Errorf("genesis address rejected: %v", err)
	}
}

func TestValidateAddress_Rejects(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want error
	}{
		{"empty", "", ErrBadEncoding},
		{"bitcoin alphabet char", "r0000000000000000000000000000000000", ErrBadEncoding},
		{"tampered checksum", "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTr", ErrBadChecksum},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateAddress(tc.in)
			if err == nil {
				t.Fatalf("expected error for %q", tc.in)
			}
			if tc.in != "" && !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}

	// A well-formed seed is still not an address.
	seed, err := EncodeSeed(make([]byte, 16), AlgorithmED25519)
	if err != nil {
		t.Fatal(err)
	}
	if err := ValidateAddress(seed); !errors.Is(err, ErrBadAddress) {
		t.Errorf("expected ErrBadAddress for seed, got %v", err)
	}
}

func TestSeedRoundTrip(t *testing.T) {
	entropy := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}

	for _, algorithm := range []KeyAlgorithm{AlgorithmED25519, AlgorithmSecp256k1} {
		t.Run(algorithm.String(), func(t *testing.T) {
			seed, err := EncodeSeed(entropy, algorithm)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			if !strings.HasPrefix(seed, "s") {
				t.Errorf("seed must start with s, got %q", seed)
			}
			if algorithm == AlgorithmED25519 && !strings.HasPrefix(seed, "sEd") {
				t.Errorf("ed25519 seed must start with sEd, got %q", seed)
			}

			gotEntropy, gotAlgorithm, err := DecodeSeed(seed)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if gotAlgorithm != algorithm {
				t.Errorf("algorithm = %v, want %v", gotAlgorithm, algorithm)
			}
			if !bytes.Equal(gotEntropy, entropy) {
				t.Errorf("entropy mismatch: %x != %x", gotEntropy, entropy)
			}
		})
	}
}

func TestDecodeSeed_RejectsAddress(t *testing.T) {
	if _, _, err := DecodeSeed("rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh"); !errors.Is(err, ErrBadSeed) {
		t.Errorf("expected ErrBadSeed, got %v", err)
	}
}
