package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/logm8/logmate/internal/common"
	"github.com/logm8/logmate/internal/cryptox"
	"github.com/logm8/logmate/internal/logging"
	"github.com/logm8/logmate/internal/server/config"
	"github.com/logm8/logmate/internal/server/models"
	"github.com/logm8/logmate/internal/server/repositories/records"
	"github.com/logm8/logmate/internal/server/repositories/tags"
)

// TagService provisions, configures and migrates tags.
type TagService struct {
	tags    tags.Repository
	records records.Repository
	tokens  *TokenStore
	pepper  string
	logger  logging.Logger
	now     func() time.Time
}

func NewTagService(tagRepo tags.Repository, recordRepo records.Repository, tokens *TokenStore, cfg *config.Config, logger logging.Logger) *TagService {
	return &TagService{
		tags:    tagRepo,
		records: recordRepo,
		tokens:  tokens,
		pepper:  cfg.TagPepper,
		logger:  logger.With("module", "tags"),
		now:     time.Now,
	}
}

// Acquire provisions a new unconfigured tag and returns its id, the
// peppered hash of the next sequence number.
func (s *TagService) Acquire(ctx context.Context) (string, error) {
	seq, err := s.tags.NextSequence(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	id := cryptox.HashWithPepper(strconv.FormatInt(seq, 10), s.pepper)
	if err := s.tags.Create(ctx, &models.Tag{ID: id, TagID: id}); err != nil {
		return "", fmt.Errorf("error creating tag: %w", err)
	}

	s.logger.Info(ctx, "tag acquired", "sequence", seq)
	return id, nil
}

// Configure applies profile to the tag named by the one-time token carried
// in profile.TagID.
func (s *TagService) Configure(ctx context.Context, profile *models.TagProfile) error {
	if profile == nil || profile.TagID == "" {
		return fmt.Errorf("%w: tagId token is required", common.ErrorValidation)
	}

	t, err := s.tokens.Authorize(ctx, profile.TagID, true)
	if err != nil {
		return err
	}

	tag, err := s.tags.Get(ctx, t.SubjectID)
	if err != nil {
		return err
	}

	profile.ApplyTo(tag)
	tag.ID = t.SubjectID
	tag.TagID = t.SubjectID

	if err := s.tags.Update(ctx, tag); err != nil {
		return err
	}
	return nil
}

// Submit applies profile to a freshly provisioned tag named by its raw id
// in profile.TagID, the id carried by the provisioning URL. Only
// unconfigured tags accept it; configured ones change through Configure.
func (s *TagService) Submit(ctx context.Context, profile *models.TagProfile) error {
	if profile == nil {
		return fmt.Errorf("%w: tag profile is required", common.ErrorValidation)
	}
	id := common.RestorePlus(strings.TrimSpace(profile.TagID))
	if id == "" {
		return fmt.Errorf("%w: tagId is required", common.ErrorValidation)
	}

	tag, err := s.tags.Get(ctx, id)
	if err != nil {
		return err
	}
	if tag.State() != models.TagUnconfigured {
		return fmt.Errorf("%w: tag is already configured", common.ErrorAlreadyExists)
	}

	profile.ApplyTo(tag)
	tag.ID = id
	tag.TagID = id

	if err := s.tags.Update(ctx, tag); err != nil {
		return err
	}
	s.logger.Info(ctx, "tag configured from provisioning")
	return nil
}

// Garage returns the tag sealed in a garage envelope id with its TagID
// blanked. Unconfigured tags are reported as not found.
func (s *TagService) Garage(ctx context.Context, id string) (*models.Tag, error) {
	tag, err := s.tags.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if tag.State() != models.TagConfigured {
		return nil, common.ErrorNotFound
	}
	tag.TagID = ""
	return tag, nil
}

// Replace moves every record of oldTagID onto newTagID and returns how
// many records moved.
func (s *TagService) Replace(ctx context.Context, oldTagID, newTagID string) (int, error) {
	oldTagID = strings.TrimSpace(oldTagID)
	newTagID = strings.TrimSpace(newTagID)
	if oldTagID == "" || newTagID == "" {
		return 0, fmt.Errorf("%w: oldTagId and newTagId are required", common.ErrorValidation)
	}
	if oldTagID == newTagID {
		return 0, fmt.Errorf("%w: tags must differ", common.ErrorValidation)
	}

	n, err := s.records.MigrateTag(ctx, oldTagID, newTagID, s.now())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	s.logger.Info(ctx, "tag records migrated", "count", n)
	return n, nil
}
