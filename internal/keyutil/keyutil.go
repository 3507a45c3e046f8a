// Package keyutil provides encodings between opaque logical keys and
// identifiers safe for filesystem and object-store namespaces.
package keyutil

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// EncodeKey maps an opaque logical key to a name safe for a single filename
// or object-key segment. Hex keeps the mapping reversible so enumeration can
// recover the original key.
func EncodeKey(key string) string {
	return hex.EncodeToString([]byte(key))
}

// DecodeKey reverses EncodeKey.
func DecodeKey(enc string) (string, error) {
	raw, err := hex.DecodeString(enc)
	if err != nil {
		return "", fmt.Errorf("malformed key encoding %q: %w", enc, err)
	}
	return string(raw), nil
}

// IsSafeSegment reports whether s can be used verbatim as a single path or
// object-key segment. Derived physical keys always pass; raw legacy keys may
// not.
func IsSafeSegment(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	if strings.ContainsAny(s, "/\\") {
		return false
	}
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}
	return true
}
