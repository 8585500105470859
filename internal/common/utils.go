package common

import "strings"

// WipeByteArray zeroes b in place. A nil slice is ignored.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// RestorePlus undoes the query-string decoding that turns '+' into ' '.
// Base64 tag identifiers routinely contain '+', so every decrypted
// identifier goes through this before a lookup.
func RestorePlus(s string) string {
	return strings.ReplaceAll(s, " ", "+")
}
