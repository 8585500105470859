// Package keypairs declares the storage contract for negotiated RSA
// sessions and its PostgreSQL implementation.
package keypairs

import (
	"context"
	"time"

	"github.com/logm8/logmate/internal/server/models"
)

// Repository persists key pairs addressed by access token.
type Repository interface {
	// Create stores a new key pair. Access tokens are expected to be fresh
	// random identifiers; a duplicate surfaces as a driver error.
	Create(ctx context.Context, kp *models.KeyPair) error

	// Find returns the key pair for accessToken or common.ErrorNotFound.
	// Expired rows are returned as-is; expiry is the caller's decision.
	Find(ctx context.Context, accessToken string) (*models.KeyPair, error)

	// DeleteExpired removes rows whose expiry is at or before now and
	// returns how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
