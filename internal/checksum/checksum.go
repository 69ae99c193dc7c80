// Package checksum computes content digests used to detect document change.
// The digest gates an optimization (skipping redundant network calls), so a
// non-cryptographic hash would do; SHA-256 keeps collision risk negligible.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Text is Sum over a string body. Callers must strip the metadata header
// before hashing so header rewrites never look like content changes.
func Text(body string) string {
	return Sum([]byte(body))
}
