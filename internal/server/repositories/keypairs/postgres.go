package keypairs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/logm8/logmate/internal/common"
	"github.com/logm8/logmate/internal/dbx"
	"github.com/logm8/logmate/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, kp *models.KeyPair) error {
	query := `
		INSERT INTO key_pairs (access_token, public_key, sealed_private_key, expires_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, query, kp.AccessToken, kp.PublicKey, kp.SealedPrivateKey, kp.ExpiresAt); err != nil {
		return fmt.Errorf("error performing sql request: %v", err)
	}
	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, accessToken string) (*models.KeyPair, error) {
	query := `
		SELECT access_token, public_key, sealed_private_key, expires_at, created_at
		FROM key_pairs
		WHERE access_token = $1
	`
	kp := &models.KeyPair{}
	err := r.db.QueryRowContext(ctx, query, accessToken).
		Scan(&kp.AccessToken, &kp.PublicKey, &kp.SealedPrivateKey, &kp.ExpiresAt, &kp.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return kp, nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		DELETE FROM key_pairs
		WHERE expires_at <= $1
	`
	n, err := dbx.ExecAffected(ctx, r.db, query, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
