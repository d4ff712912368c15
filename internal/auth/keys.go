// Package auth provides API key hashing for tenant authentication.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashKey returns the hex-encoded SHA-256 digest of an API key.
// Only the hash is stored server side.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(key)))
	return hex.EncodeToString(sum[:])
}
