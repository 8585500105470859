package serviceoptions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/logm8/logmate/internal/common"
	"github.com/logm8/logmate/internal/dbx"
)

// PostgresRepository is the read/write catalog in PostgreSQL.
type PostgresRepository struct {
	*SQLReader
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{SQLReader: NewSQLReader(db), db: db}
}

func (r *PostgresRepository) UpsertByName(ctx context.Context, name string, description *string) (int, error) {
	insert := `
		INSERT INTO service_options (name, description)
		VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING
		RETURNING id
	`
	var id int
	err := r.db.QueryRowContext(ctx, insert, name, description).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("db error: %w", err)
	}

	// the name already exists
	lookup := `
		SELECT id
		FROM service_options
		WHERE name = $1
	`
	if err := r.db.QueryRowContext(ctx, lookup, name).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) LinkVehicleType(ctx context.Context, vehicleType string, optionID int) (bool, error) {
	query := `
		INSERT INTO vehicle_type_service_options (vehicle_type_id, service_option_id)
		SELECT vt.id, $2
		FROM vehicle_types vt
		WHERE vt.name = $1
		ON CONFLICT DO NOTHING
	`
	return r.insertIfAbsent(ctx, query, vehicleType, optionID)
}

func (r *PostgresRepository) AddRelation(ctx context.Context, parentID, childID int) (bool, error) {
	query := `
		INSERT INTO service_option_relations (parent_id, child_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	return r.insertIfAbsent(ctx, query, parentID, childID)
}

func (r *PostgresRepository) AddServiceType(ctx context.Context, optionID, serviceTypeID int) (bool, error) {
	query := `
		INSERT INTO service_option_service_types (service_option_id, service_type_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	return r.insertIfAbsent(ctx, query, optionID, serviceTypeID)
}

func (r *PostgresRepository) insertIfAbsent(ctx context.Context, query string, args ...any) (bool, error) {
	n, err := dbx.ExecAffected(ctx, r.db, query, args...)
	if err != nil {
		return false, fmt.Errorf("error performing sql request: %v", err)
	}
	return n > 0, nil
}
