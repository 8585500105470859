package serviceoptions

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/logm8/logmate/internal/dbx"
	"github.com/logm8/logmate/internal/server/models"
)

// SQLReader implements Reader over any database/sql driver.
type SQLReader struct {
	db dbx.DBTX
}

func NewSQLReader(db dbx.DBTX) *SQLReader {
	return &SQLReader{db: db}
}

func (r *SQLReader) ListOptions(ctx context.Context) ([]models.CatalogOption, error) {
	query := `
		SELECT so.id, so.name, so.description, st.name
		FROM service_options so
		LEFT JOIN service_option_service_types sost ON sost.service_option_id = so.id
		LEFT JOIN service_types st ON st.id = sost.service_type_id
		ORDER BY so.id, st.name
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.CatalogOption
	for rows.Next() {
		var (
			id       int
			name     string
			descr    sql.NullString
			typeName sql.NullString
		)
		if err := rows.Scan(&id, &name, &descr, &typeName); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if n := len(out); n == 0 || out[n-1].ID != id {
			opt := models.CatalogOption{ID: id, Name: name, ServiceTypes: []string{}}
			if descr.Valid {
				d := descr.String
				opt.Description = &d
			}
			out = append(out, opt)
		}
		if typeName.Valid {
			last := &out[len(out)-1]
			last.ServiceTypes = append(last.ServiceTypes, typeName.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *SQLReader) ListRelations(ctx context.Context) ([]models.OptionRelation, error) {
	query := `
		SELECT parent_id, child_id
		FROM service_option_relations
		ORDER BY parent_id, child_id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.OptionRelation
	for rows.Next() {
		var rel models.OptionRelation
		if err := rows.Scan(&rel.ParentID, &rel.ChildID); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *SQLReader) ListVehicleTypeLinks(ctx context.Context) ([]models.VehicleTypeLink, error) {
	query := `
		SELECT vt.name, vtso.service_option_id
		FROM vehicle_type_service_options vtso
		JOIN vehicle_types vt ON vt.id = vtso.vehicle_type_id
		ORDER BY vtso.service_option_id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.VehicleTypeLink
	for rows.Next() {
		var l models.VehicleTypeLink
		if err := rows.Scan(&l.VehicleType, &l.OptionID); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
