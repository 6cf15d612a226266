// Package checksum fingerprints content files and generated assets.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data. The index compares it
// to decide whether a content file changed.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Short returns the first 10 hex characters of Sum, for cache-busting
// asset URLs.
func Short(data []byte) string {
	return Sum(data)[:10]
}
