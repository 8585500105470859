// Package models defines the typed domain records shared by services,
// repositories and the HTTP layer.
package models

import "time"

// KeyPair is a negotiated session: an RSA key pair addressed by an opaque
// access token. The private key is stored sealed, never in plaintext.
type KeyPair struct {
	AccessToken      string
	PublicKey        string
	SealedPrivateKey []byte
	ExpiresAt        time.Time
	CreatedAt        time.Time
}

// Expired reports whether the session can no longer be used at now.
func (k *KeyPair) Expired(now time.Time) bool {
	return !now.Before(k.ExpiresAt)
}
