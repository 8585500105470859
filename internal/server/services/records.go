package services

import (
	"context"
	"fmt"
	"path"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/logm8/logmate/internal/common"
	"github.com/logm8/logmate/internal/logging"
	"github.com/logm8/logmate/internal/server/config"
	"github.com/logm8/logmate/internal/server/models"
	"github.com/logm8/logmate/internal/server/repositories/records"
	"github.com/logm8/logmate/internal/server/repositories/tags"
)

const (
	uploadURLValidity  = 15 * time.Minute
	receiptURLValidity = 15 * time.Minute
	receiptKeyPrefix   = "receipts/"
)

// Presigner issues time-limited object URLs.
type Presigner interface {
	PresignPut(ctx context.Context, bucket, key, contentType string, ttl time.Duration) (string, error)
	PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
}

// LogData is what a one-time token unlocks: the tag, its history and the
// access mode.
type LogData struct {
	Tag     *models.Tag      `json:"tag"`
	Records []*models.Record `json:"records"`
	Mode    models.TokenMode `json:"mode"`
}

// UploadTarget is a presigned receipt upload.
type UploadTarget struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// RecordService manages service records for the subject of a token.
type RecordService struct {
	records   records.Repository
	tags      tags.Repository
	tokens    *TokenStore
	presigner Presigner
	bucket    string
	logger    logging.Logger
	now       func() time.Time
	newID     func() string
}

func NewRecordService(recordRepo records.Repository, tagRepo tags.Repository, tokens *TokenStore, presigner Presigner, cfg *config.Config, logger logging.Logger) *RecordService {
	return &RecordService{
		records:   recordRepo,
		tags:      tagRepo,
		tokens:    tokens,
		presigner: presigner,
		bucket:    cfg.S3ReceiptsBucket,
		logger:    logger.With("module", "records"),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// LogData returns the tag and records for an unexpired token. Consumed
// tokens may still read.
func (s *RecordService) LogData(ctx context.Context, tokenKey string) (*LogData, error) {
	t, err := s.tokens.Authorize(ctx, tokenKey, false)
	if err != nil {
		return nil, err
	}

	tag, err := s.tags.Get(ctx, t.SubjectID)
	if err != nil {
		return nil, err
	}
	recs, err := s.records.ListByTag(ctx, t.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].ServicedAt().After(recs[j].ServicedAt())
	})

	return &LogData{Tag: tag, Records: recs, Mode: t.Mode}, nil
}

// Add stores rec for the token's subject and returns it with its new id.
func (s *RecordService) Add(ctx context.Context, tokenKey string, rec *models.Record) (*models.Record, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: record is required", common.ErrorValidation)
	}
	t, err := s.tokens.Authorize(ctx, tokenKey, true)
	if err != nil {
		return nil, err
	}
	if err := validateFileKeys(rec.FileKeys); err != nil {
		return nil, err
	}

	rec.ID = s.newID()
	rec.TagID = t.SubjectID
	rec.EnteredDate = s.now().UTC().Format(time.RFC3339)
	if rec.FileKeys == nil {
		rec.FileKeys = []string{}
	}

	if err := s.records.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	return rec, nil
}

// Update merges patch into a record owned by the token's subject.
func (s *RecordService) Update(ctx context.Context, patch *models.RecordPatch) (*models.Record, error) {
	if patch == nil || patch.ID == "" {
		return nil, fmt.Errorf("%w: record id is required", common.ErrorValidation)
	}
	t, err := s.tokens.Authorize(ctx, patch.Token, true)
	if err != nil {
		return nil, err
	}
	if err := validateFileKeys(patch.FileKeys); err != nil {
		return nil, err
	}

	rec, err := s.records.Get(ctx, patch.ID)
	if err != nil {
		return nil, err
	}
	if rec.TagID != t.SubjectID {
		// do not reveal records of other tags
		return nil, common.ErrorNotFound
	}

	patch.ApplyTo(rec)
	if err := s.records.Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// UploadURL presigns a receipt upload for the token's subject.
func (s *RecordService) UploadURL(ctx context.Context, tokenKey, fileName string) (*UploadTarget, error) {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(fileName), "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return nil, fmt.Errorf("%w: fileName is required", common.ErrorValidation)
	}
	if _, err := s.tokens.Authorize(ctx, tokenKey, true); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s%s_%s", receiptKeyPrefix, s.newID(), name)
	u, err := s.presigner.PresignPut(ctx, s.bucket, key, ContentTypeFor(name), uploadURLValidity)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	return &UploadTarget{Key: key, URL: u}, nil
}

// ReceiptURL presigns a download of key, which must be attached to one of
// the token subject's records.
func (s *RecordService) ReceiptURL(ctx context.Context, tokenKey, key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: key is required", common.ErrorValidation)
	}
	t, err := s.tokens.Authorize(ctx, tokenKey, false)
	if err != nil {
		return "", err
	}

	recs, err := s.records.ListByTag(ctx, t.SubjectID)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	attached := slices.ContainsFunc(recs, func(r *models.Record) bool {
		return slices.Contains(r.FileKeys, key)
	})
	if !attached {
		return "", common.ErrorNotFound
	}

	u, err := s.presigner.PresignGet(ctx, s.bucket, key, receiptURLValidity)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	return u, nil
}

func validateFileKeys(keys []string) error {
	for _, k := range keys {
		if !strings.HasPrefix(k, receiptKeyPrefix) || strings.Contains(k, "..") {
			return fmt.Errorf("%w: invalid file key %q", common.ErrorValidation, k)
		}
	}
	return nil
}

var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// ContentTypeFor maps a file name to the content type stored with the
// receipt.
func ContentTypeFor(fileName string) string {
	if ct, ok := contentTypes[strings.ToLower(path.Ext(fileName))]; ok {
		return ct
	}
	return "application/octet-stream"
}
