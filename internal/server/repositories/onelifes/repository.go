// Package onelifes declares the storage contract for one-time tokens and
// its PostgreSQL implementation.
package onelifes

import (
	"context"

	"github.com/logm8/logmate/internal/server/models"
)

// Repository persists OneLifeTokens.
type Repository interface {
	// Create stores t with consumed=false.
	Create(ctx context.Context, t *models.OneLifeToken) error

	// Find returns the token or common.ErrorNotFound. Expired and consumed
	// tokens are returned as data.
	Find(ctx context.Context, tokenKey string) (*models.OneLifeToken, error)

	// MarkConsumed sets consumed=true. It reports true only when this call
	// performed the false→true transition; unknown or already consumed
	// tokens return false without error.
	MarkConsumed(ctx context.Context, tokenKey string) (bool, error)
}
