// Package services contains the server-side business logic: the one-time
// token negotiation protocol and the tag, record and service-option
// operations built on it.
package services

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/logm8/logmate/internal/common"
	"github.com/logm8/logmate/internal/cryptox"
	"github.com/logm8/logmate/internal/logging"
	"github.com/logm8/logmate/internal/server/config"
	"github.com/logm8/logmate/internal/server/models"
	"github.com/logm8/logmate/internal/server/repositories/tags"
)

// Session is the result of Negotiate.
type Session struct {
	AccessToken string `json:"accessToken"`
	PublicKey   string `json:"publicKey"`
}

// Resolution is the outcome of resolving a tag identifier. Token is set
// only when a one-time token was minted.
type Resolution struct {
	State models.TagState
	URL   string
	Token string
}

// Minted reports whether the resolution carries a one-time token URL.
func (r *Resolution) Minted() bool { return r.Token != "" }

// NegotiationService runs the session and one-time token protocol.
type NegotiationService struct {
	keys    *KeyStore
	tokens  *TokenStore
	tags    tags.Repository
	logger  logging.Logger
	aesKey  []byte
	rsaBits int
	baseURL string

	newAccessToken func() string
	generateKey    func(bits int) (*rsa.PrivateKey, error)
}

func NewNegotiationService(keys *KeyStore, tokens *TokenStore, tagRepo tags.Repository, cfg *config.Config, logger logging.Logger) *NegotiationService {
	return &NegotiationService{
		keys:           keys,
		tokens:         tokens,
		tags:           tagRepo,
		logger:         logger.With("module", "negotiation"),
		aesKey:         []byte(cfg.AESKey),
		rsaBits:        cfg.RSAKeyBits,
		baseURL:        strings.TrimRight(cfg.PublicBaseURL, "/"),
		newAccessToken: uuid.NewString,
		generateKey:    cryptox.GenerateKeyPair,
	}
}

// Negotiate issues a key pair under a fresh access token. Expired sessions
// are purged first; a purge failure does not fail the negotiation.
func (s *NegotiationService) Negotiate(ctx context.Context) (*Session, error) {
	if n, err := s.keys.PurgeExpired(ctx); err != nil {
		s.logger.Warn(ctx, "expired key purge failed", "error", err)
	} else if n > 0 {
		s.logger.Info(ctx, "purged expired key pairs", "count", n)
	}

	priv, err := s.generateKey(s.rsaBits)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	pub, err := cryptox.MarshalPublicKeyPEM(&priv.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	accessToken := s.newAccessToken()
	if err := s.keys.IssueKeyPair(ctx, accessToken, pub, priv); err != nil {
		s.logger.Error(ctx, "negotiation failed", "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	return &Session{AccessToken: accessToken, PublicKey: pub}, nil
}

// ResolveAsymmetric decrypts eID with the session's private key and
// resolves the tag it names.
func (s *NegotiationService) ResolveAsymmetric(ctx context.Context, accessToken, eID string) (*Resolution, error) {
	if accessToken == "" || eID == "" {
		return nil, fmt.Errorf("%w: accessToken and eId are required", common.ErrorValidation)
	}

	priv, err := s.keys.GetPrivateKey(ctx, accessToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: unknown session", common.ErrorUnauthorized)
		}
		return nil, err
	}

	pt, err := cryptox.Decrypt(common.RestorePlus(eID), priv)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorCrypto, err)
	}

	return s.resolve(ctx, string(pt), nil)
}

// ResolveSymmetric opens an envelope sealed with the pre-shared key and
// resolves the tag it names, binding ownerID to a minted token.
func (s *NegotiationService) ResolveSymmetric(ctx context.Context, envelope string, ownerID *string) (*Resolution, error) {
	id, err := s.OpenEnvelope(envelope)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, id, ownerID)
}

// Guest mints a guest token for the enveloped id without looking at the
// tag's configuration.
func (s *NegotiationService) Guest(ctx context.Context, envelope string) (*Resolution, error) {
	id, err := s.OpenEnvelope(envelope)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, fmt.Errorf("%w: empty identifier", common.ErrorValidation)
	}

	token, err := s.tokens.MintToken(ctx, id, models.ModeGuest, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	return &Resolution{URL: s.logURL(token), Token: token}, nil
}

// Consume marks a one-time token used. Unknown and already consumed tokens
// are accepted silently and logged as a possible replay.
func (s *NegotiationService) Consume(ctx context.Context, tokenKey string) error {
	if tokenKey == "" {
		return fmt.Errorf("%w: token is required", common.ErrorValidation)
	}

	ok, err := s.tokens.MarkConsumed(ctx, tokenKey)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	if !ok {
		s.logger.Warn(ctx, "consume of unknown or already consumed token")
	}
	return nil
}

// OpenEnvelope decrypts a symmetric envelope and normalizes the identifier
// inside. Malformed envelopes fail before any store is touched.
func (s *NegotiationService) OpenEnvelope(envelope string) (string, error) {
	if envelope == "" {
		return "", fmt.Errorf("%w: eId is required", common.ErrorValidation)
	}
	_, pt, err := cryptox.SymmetricDecrypt(common.RestorePlus(envelope), s.aesKey)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrorCrypto, err)
	}
	return common.RestorePlus(string(pt)), nil
}

func (s *NegotiationService) resolve(ctx context.Context, rawID string, ownerID *string) (*Resolution, error) {
	id := common.RestorePlus(rawID)
	if id == "" {
		return nil, fmt.Errorf("%w: empty identifier", common.ErrorValidation)
	}

	state, err := s.tags.State(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	switch state {
	case models.TagConfigured:
		token, err := s.tokens.MintToken(ctx, id, models.ModeService, ownerID)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
		}
		return &Resolution{State: state, URL: s.logURL(token), Token: token}, nil

	case models.TagUnconfigured:
		// The provisioning page needs the raw id.
		s.logger.Warn(ctx, "unconfigured tag resolved, exposing provisioning id")
		return &Resolution{State: state, URL: s.baseURL + "/tag/create?token=" + url.QueryEscape(id)}, nil

	default:
		return nil, fmt.Errorf("%w: tag", common.ErrorNotFound)
	}
}

func (s *NegotiationService) logURL(token string) string {
	return s.baseURL + "/log?token=" + url.QueryEscape(token)
}
