package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash returns the full hex sha256 of data.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ShortHash returns the first 16 hex characters of the sha256 of data.
func ShortHash(data []byte) string {
	return ContentHash(data)[:16]
}
