package cryptox

import (
	"crypto/sha256"
	"encoding/base64"
)

// HashWithPepper derives an opaque tag identifier from a sequence id:
// base64(SHA-256(id || pepper)). It is one-way and only used when a new tag
// is provisioned.
func HashWithPepper(id, pepper string) string {
	sum := sha256.Sum256([]byte(id + pepper))
	return base64.StdEncoding.EncodeToString(sum[:])
}
