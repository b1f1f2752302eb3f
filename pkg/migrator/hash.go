package migrator

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns the lowercase hex encoded SHA256 digest of contents. It is the
// value stored in the ledger's hash column and compared on every run.
func Hash(contents string) string {
	sum := sha256.Sum256([]byte(contents))
	return hex.EncodeToString(sum[:])
}
