package onelifes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/logm8/logmate/internal/common"
	"github.com/logm8/logmate/internal/dbx"
	"github.com/logm8/logmate/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, t *models.OneLifeToken) error {
	query := `
		INSERT INTO one_life_tokens (token_key, subject_id, expires_at, mode, owner_id)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.ExecContext(ctx, query, t.TokenKey, t.SubjectID, t.ExpiresAt, int(t.Mode), t.OwnerID); err != nil {
		return fmt.Errorf("error performing sql request: %v", err)
	}
	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, tokenKey string) (*models.OneLifeToken, error) {
	query := `
		SELECT token_key, subject_id, expires_at, mode, owner_id, consumed, created_at
		FROM one_life_tokens
		WHERE token_key = $1
	`
	var (
		t     models.OneLifeToken
		mode  int
		owner sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, tokenKey).
		Scan(&t.TokenKey, &t.SubjectID, &t.ExpiresAt, &mode, &owner, &t.Consumed, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	t.Mode = models.TokenMode(mode)
	if owner.Valid {
		t.OwnerID = &owner.String
	}
	return &t, nil
}

func (r *PostgresRepository) MarkConsumed(ctx context.Context, tokenKey string) (bool, error) {
	query := `
		UPDATE one_life_tokens
		SET consumed = TRUE
		WHERE token_key = $1 AND consumed = FALSE
	`
	n, err := dbx.ExecAffected(ctx, r.db, query, tokenKey)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}
