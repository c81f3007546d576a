// Package idhash derives deterministic identifiers for archival records.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeRunID computes a deterministic run_id using SHA256.
// Formula: SHA256(issuer|issued_currency|yielding_currency|started_at_ms)
// Returns hex-encoded hash (64 characters).
//
// Two runs over the same token pair started at the same millisecond get
// the same ID; the archive treats that as a duplicate, which is the
// desired outcome for an accidental re-archive.
func ComputeRunID(issuer, issuedCurrency, yieldingCurrency string, startedAtMs int64) string {
	data := fmt.Sprintf("%s|%s|%s|%d",
		issuer,
		issuedCurrency,
		yieldingCurrency,
		startedAtMs,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
