package session

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// hashTokenHex hashes refresh tokens for server-side storage.
// The plain token value is never persisted; equality of the stored hash and
// the hash of a presented token is equality of the values.
func hashTokenHex(tok string) string {
	sum := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:])
}

// ctEqHex64 compares two 64-char hex digests in constant time.
// Fixed-length comparison avoids length-based side channels.
func ctEqHex64(a, b string) bool {
	if len(a) != 64 || len(b) != 64 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
