// Package cryptox implements the cryptographic primitives of the tag
// negotiation protocol: RSA-OAEP session keys, the colon-delimited AES-CBC
// envelope, the peppered tag-id hash and at-rest sealing of private keys.
package cryptox

import "errors"

// MinRSABits is the smallest modulus accepted by GenerateKeyPair.
const MinRSABits = 2048

var (
	ErrWeakKey         = errors.New("rsa key size below minimum")
	ErrInvalidKey      = errors.New("invalid key material")
	ErrInvalidEnvelope = errors.New("invalid payload format")
	ErrInvalidPadding  = errors.New("invalid padding")
	ErrDecrypt         = errors.New("decryption failed")
)
