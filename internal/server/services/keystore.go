package services

import (
	"context"
	"crypto/rsa"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/logm8/logmate/internal/common"
	"github.com/logm8/logmate/internal/cryptox"
	"github.com/logm8/logmate/internal/server/config"
	"github.com/logm8/logmate/internal/server/models"
	"github.com/logm8/logmate/internal/server/repositories/repomanager"
)

// KeyStore persists negotiated RSA sessions. Private keys are sealed before
// they reach the database, with the access token bound as associated data
// so a sealed key cannot be replayed under another session.
type KeyStore struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	sealer      *cryptox.Sealer
	validity    time.Duration
	now         func() time.Time
}

func NewKeyStore(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) (*KeyStore, error) {
	sealer, err := cryptox.NewSealer([]byte(cfg.KeySealSecret))
	if err != nil {
		return nil, fmt.Errorf("error creating key sealer: %w", err)
	}
	return &KeyStore{
		db:          db,
		repomanager: m,
		sealer:      sealer,
		validity:    cfg.KeyPairValidityDuration,
		now:         time.Now,
	}, nil
}

// IssueKeyPair stores a new session expiring after the configured validity.
func (s *KeyStore) IssueKeyPair(ctx context.Context, accessToken, publicKey string, priv *rsa.PrivateKey) error {
	der, err := cryptox.MarshalPrivateKey(priv)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	defer common.WipeByteArray(der)

	sealed, err := s.sealer.Seal(der, []byte(accessToken))
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	now := s.now()
	kp := &models.KeyPair{
		AccessToken:      accessToken,
		PublicKey:        publicKey,
		SealedPrivateKey: sealed,
		ExpiresAt:        now.Add(s.validity),
		CreatedAt:        now,
	}

	if err := s.repomanager.KeyPairs(s.db).Create(ctx, kp); err != nil {
		return fmt.Errorf("error storing key pair: %w", err)
	}
	return nil
}

// GetPrivateKey returns the session's private key. Unknown sessions yield
// common.ErrorNotFound and expired ones common.ErrTokenExpired.
func (s *KeyStore) GetPrivateKey(ctx context.Context, accessToken string) (*rsa.PrivateKey, error) {
	kp, err := s.repomanager.KeyPairs(s.db).Find(ctx, accessToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error searching key pair: %w", err)
	}

	if kp.Expired(s.now()) {
		return nil, common.ErrTokenExpired
	}

	der, err := s.sealer.Open(kp.SealedPrivateKey, []byte(accessToken))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	defer common.WipeByteArray(der)

	priv, err := cryptox.ParsePrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	return priv, nil
}

// PurgeExpired deletes sessions that can no longer be used.
func (s *KeyStore) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.repomanager.KeyPairs(s.db).DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("error purging key pairs: %w", err)
	}
	return n, nil
}
