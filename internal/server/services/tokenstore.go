package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/logm8/logmate/internal/common"
	"github.com/logm8/logmate/internal/server/config"
	"github.com/logm8/logmate/internal/server/models"
	"github.com/logm8/logmate/internal/server/repositories/repomanager"
)

// TokenStore mints and resolves one-time tokens.
type TokenStore struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	validity    time.Duration
	now         func() time.Time
	newKey      func() string
}

func NewTokenStore(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *TokenStore {
	return &TokenStore{
		db:          db,
		repomanager: m,
		validity:    cfg.OneLifeTokenValidityDuration,
		now:         time.Now,
		newKey:      uuid.NewString,
	}
}

// MintToken persists a fresh token for subjectID and returns its key. The
// key is only returned once the row is stored.
func (s *TokenStore) MintToken(ctx context.Context, subjectID string, mode models.TokenMode, ownerID *string) (string, error) {
	now := s.now()
	t := &models.OneLifeToken{
		TokenKey:  s.newKey(),
		SubjectID: subjectID,
		ExpiresAt: now.Add(s.validity),
		Mode:      mode,
		OwnerID:   ownerID,
		CreatedAt: now,
	}

	if err := s.repomanager.OneLifeTokens(s.db).Create(ctx, t); err != nil {
		return "", fmt.Errorf("error storing one-time token: %w", err)
	}
	return t.TokenKey, nil
}

// Resolve returns the token as stored, or common.ErrorNotFound. Expiry and
// consumption are left to the caller.
func (s *TokenStore) Resolve(ctx context.Context, tokenKey string) (*models.OneLifeToken, error) {
	if tokenKey == "" {
		return nil, common.ErrorNotFound
	}
	t, err := s.repomanager.OneLifeTokens(s.db).Find(ctx, tokenKey)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error searching one-time token: %w", err)
	}
	return t, nil
}

func (s *TokenStore) CheckConsumed(ctx context.Context, tokenKey string) (*models.TokenStatus, error) {
	t, err := s.Resolve(ctx, tokenKey)
	if err != nil {
		return nil, err
	}
	return &models.TokenStatus{SubjectID: t.SubjectID, Consumed: t.Consumed}, nil
}

// MarkConsumed flips the consumed flag. It reports whether this call did
// the transition; repeats and unknown keys return false and no error.
func (s *TokenStore) MarkConsumed(ctx context.Context, tokenKey string) (bool, error) {
	ok, err := s.repomanager.OneLifeTokens(s.db).MarkConsumed(ctx, tokenKey)
	if err != nil {
		return false, fmt.Errorf("error consuming one-time token: %w", err)
	}
	return ok, nil
}

// Authorize resolves a token presented by a client and applies expiry.
// When write is set the token must also be unconsumed and minted in
// service mode; guest tokens are read-only.
func (s *TokenStore) Authorize(ctx context.Context, tokenKey string, write bool) (*models.OneLifeToken, error) {
	t, err := s.Resolve(ctx, tokenKey)
	if err != nil {
		return nil, err
	}
	if t.Expired(s.now()) {
		return nil, common.ErrTokenExpired
	}
	if !write {
		return t, nil
	}
	if t.Consumed {
		return nil, common.ErrorAlreadyConsumed
	}
	if t.Mode != models.ModeService {
		return nil, fmt.Errorf("%w: guest tokens are read-only", common.ErrorUnauthorized)
	}
	return t, nil
}
