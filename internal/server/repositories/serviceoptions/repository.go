// Package serviceoptions reads and edits the service-option catalog. The
// read side uses portable SQL only, so the same Reader serves both the
// PostgreSQL catalog and a downloaded SQLite snapshot of it.
package serviceoptions

import (
	"context"

	"github.com/logm8/logmate/internal/server/models"
)

// Reader lists the flat catalog tables; tree assembly happens in Go.
type Reader interface {
	ListOptions(ctx context.Context) ([]models.CatalogOption, error)
	ListRelations(ctx context.Context) ([]models.OptionRelation, error)
	ListVehicleTypeLinks(ctx context.Context) ([]models.VehicleTypeLink, error)
}

// Repository adds the admin write operations. Methods returning bool report
// whether a row was written; false means the link already existed.
type Repository interface {
	Reader

	// UpsertByName inserts an option or returns the id of the existing one
	// with the same name.
	UpsertByName(ctx context.Context, name string, description *string) (int, error)

	LinkVehicleType(ctx context.Context, vehicleType string, optionID int) (bool, error)
	AddRelation(ctx context.Context, parentID, childID int) (bool, error)
	AddServiceType(ctx context.Context, optionID, serviceTypeID int) (bool, error)
}
