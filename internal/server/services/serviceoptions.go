package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/logm8/logmate/internal/common"
	"github.com/logm8/logmate/internal/dbx"
	"github.com/logm8/logmate/internal/logging"
	"github.com/logm8/logmate/internal/server/models"
	"github.com/logm8/logmate/internal/server/repositories/repomanager"
	"github.com/logm8/logmate/internal/server/repositories/serviceoptions"
)

// SnapshotSource serves the catalog from a downloaded snapshot.
type SnapshotSource interface {
	WithReader(ctx context.Context, fn func(serviceoptions.Reader) error) error
	Refresh(ctx context.Context) error
}

// ServiceOptionService reads the service-option catalog and applies admin
// edits to it.
type ServiceOptionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	snapshot    SnapshotSource
	logger      logging.Logger
}

func NewServiceOptionService(db *sql.DB, m repomanager.RepositoryManager, snapshot SnapshotSource, logger logging.Logger) *ServiceOptionService {
	return &ServiceOptionService{
		db:          db,
		repomanager: m,
		snapshot:    snapshot,
		logger:      logger.With("module", "serviceoptions"),
	}
}

// Hierarchy builds the catalog view from the live database.
func (s *ServiceOptionService) Hierarchy(ctx context.Context) (*models.ServiceHierarchy, error) {
	h, err := hierarchyFrom(ctx, s.repomanager.ServiceOptions(s.db))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	return h, nil
}

// SnapshotHierarchy builds the same view from the cached snapshot.
func (s *ServiceOptionService) SnapshotHierarchy(ctx context.Context) (*models.ServiceHierarchy, error) {
	var h *models.ServiceHierarchy
	err := s.snapshot.WithReader(ctx, func(r serviceoptions.Reader) error {
		var err error
		h, err = hierarchyFrom(ctx, r)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	return h, nil
}

// RefreshSnapshot forces the snapshot to be downloaded again.
func (s *ServiceOptionService) RefreshSnapshot(ctx context.Context) error {
	if err := s.snapshot.Refresh(ctx); err != nil {
		return fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	return nil
}

func hierarchyFrom(ctx context.Context, r serviceoptions.Reader) (*models.ServiceHierarchy, error) {
	opts, err := r.ListOptions(ctx)
	if err != nil {
		return nil, err
	}
	rels, err := r.ListRelations(ctx)
	if err != nil {
		return nil, err
	}
	links, err := r.ListVehicleTypeLinks(ctx)
	if err != nil {
		return nil, err
	}

	return &models.ServiceHierarchy{
		MotorbikeOptions: BuildHierarchy(FlattenFor(motorbikeVehicleType, opts, rels, links)),
		OwnershipOptions: BuildHierarchy(OptionsNamed(ownershipOptionName, opts)),
	}, nil
}

// AddOption inserts the option, or finds it by name, and links it to the
// Motorbike vehicle type in one transaction. An option that was already
// linked yields common.ErrorAlreadyExists.
func (s *ServiceOptionService) AddOption(ctx context.Context, name string, description *string) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: name is required", common.ErrorValidation)
	}

	var (
		id     int
		linked bool
	)
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.ServiceOptions(tx)

		var err error
		id, err = repo.UpsertByName(ctx, name, description)
		if err != nil {
			return fmt.Errorf("error upserting service option: %w", err)
		}
		linked, err = repo.LinkVehicleType(ctx, motorbikeVehicleType, id)
		if err != nil {
			return fmt.Errorf("error linking service option: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	if !linked {
		return id, common.ErrorAlreadyExists
	}

	s.logger.Info(ctx, "service option created", "id", id)
	return id, nil
}

// AddParent makes parentID a parent of childID.
func (s *ServiceOptionService) AddParent(ctx context.Context, parentID, childID int) error {
	if parentID <= 0 || childID <= 0 {
		return fmt.Errorf("%w: parentId and childId must be positive", common.ErrorValidation)
	}
	if parentID == childID {
		return fmt.Errorf("%w: an option cannot be its own parent", common.ErrorValidation)
	}

	inserted, err := s.repomanager.ServiceOptions(s.db).AddRelation(ctx, parentID, childID)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	if !inserted {
		return common.ErrorAlreadyExists
	}
	return nil
}

// AddServiceType attaches a service type to an option.
func (s *ServiceOptionService) AddServiceType(ctx context.Context, optionID, serviceTypeID int) error {
	if optionID <= 0 || serviceTypeID <= 0 {
		return fmt.Errorf("%w: serviceOptionId and serviceTypeId must be positive", common.ErrorValidation)
	}

	inserted, err := s.repomanager.ServiceOptions(s.db).AddServiceType(ctx, optionID, serviceTypeID)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	if !inserted {
		return common.ErrorAlreadyExists
	}
	return nil
}
