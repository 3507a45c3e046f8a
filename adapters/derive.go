package adapters

import (
	"crypto/sha256"
	"encoding/hex"
)

// Derive maps a logical key to its physical shard key. Logical keys are
// opaque and may be arbitrarily long or contain characters unsafe for a path
// segment or object key; the derived form is fixed-width hex, safe for any
// backend namespace.
//
// The result is cached in the contract record at first Put and reused from
// there on later operations, so changing this function does not orphan
// shards written under an earlier derivation.
func Derive(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
