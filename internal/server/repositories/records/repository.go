// Package records stores service records in the Redis document store,
// indexed per tag by serviced date.
package records

import (
	"context"
	"time"

	"github.com/logm8/logmate/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, r *models.Record) error

	// Get returns the record or common.ErrorNotFound.
	Get(ctx context.Context, id string) (*models.Record, error)

	// Update replaces an existing record; the tag binding must not change.
	Update(ctx context.Context, r *models.Record) error

	// ListByTag returns the tag's records, newest serviced date first.
	ListByTag(ctx context.Context, tagID string) ([]*models.Record, error)

	// MigrateTag moves every record of oldTagID to newTagID under fresh ids
	// and reports how many were moved.
	MigrateTag(ctx context.Context, oldTagID, newTagID string, at time.Time) (int, error)
}
