// Package sessionkey derives storage keys from visitor session ids so that
// raw cookie values never reach a shared store.
package sessionkey

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// TokenField is the fixed name the credential token is stored under.
const TokenField = "token"

// Hash returns the hex BLAKE2b-256 digest of sid.
func Hash(sid string) string {
	sum := blake2b.Sum256([]byte(sid))
	return hex.EncodeToString(sum[:])
}
