// Package tags stores NFC tag profiles in the Redis document store.
package tags

import (
	"context"

	"github.com/logm8/logmate/internal/server/models"
)

// Repository is the tag collaborator of the negotiation protocol.
type Repository interface {
	// Get returns the tag or common.ErrorNotFound.
	Get(ctx context.Context, id string) (*models.Tag, error)

	// State reports the tri-state configuration of id. A missing tag is
	// TagNotFound with a nil error.
	State(ctx context.Context, id string) (models.TagState, error)

	// Create inserts a new tag; common.ErrorAlreadyExists if the id is taken.
	Create(ctx context.Context, tag *models.Tag) error

	// Update replaces an existing tag; common.ErrorNotFound if absent.
	Update(ctx context.Context, tag *models.Tag) error

	// NextSequence atomically advances the provisioning counter.
	NextSequence(ctx context.Context) (int64, error)
}
