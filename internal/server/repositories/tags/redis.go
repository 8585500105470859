package tags

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/logm8/logmate/internal/common"
	"github.com/logm8/logmate/internal/server/models"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix   = "tag:"
	sequenceKey = "tag_sequence"
)

// RedisRepository keeps each tag as a JSON document under "tag:{id}".
type RedisRepository struct {
	client redis.Cmdable
}

func NewRedisRepository(client redis.Cmdable) *RedisRepository {
	return &RedisRepository{client: client}
}

func tagKey(id string) string { return keyPrefix + id }

func (r *RedisRepository) Get(ctx context.Context, id string) (*models.Tag, error) {
	raw, err := r.client.Get(ctx, tagKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("redis error: %w", err)
	}
	tag := &models.Tag{}
	if err := json.Unmarshal(raw, tag); err != nil {
		return nil, fmt.Errorf("decode tag %q: %w", id, err)
	}
	return tag, nil
}

func (r *RedisRepository) State(ctx context.Context, id string) (models.TagState, error) {
	tag, err := r.Get(ctx, id)
	if errors.Is(err, common.ErrorNotFound) {
		return models.TagNotFound, nil
	}
	if err != nil {
		return models.TagNotFound, err
	}
	return tag.State(), nil
}

func (r *RedisRepository) Create(ctx context.Context, tag *models.Tag) error {
	raw, err := json.Marshal(tag)
	if err != nil {
		return err
	}
	ok, err := r.client.SetNX(ctx, tagKey(tag.ID), raw, 0).Result()
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	if !ok {
		return common.ErrorAlreadyExists
	}
	return nil
}

func (r *RedisRepository) Update(ctx context.Context, tag *models.Tag) error {
	raw, err := json.Marshal(tag)
	if err != nil {
		return err
	}
	ok, err := r.client.SetXX(ctx, tagKey(tag.ID), raw, 0).Result()
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	if !ok {
		return common.ErrorNotFound
	}
	return nil
}

func (r *RedisRepository) NextSequence(ctx context.Context) (int64, error) {
	n, err := r.client.Incr(ctx, sequenceKey).Result()
	if err != nil {
		return 0, fmt.Errorf("redis error: %w", err)
	}
	return n, nil
}
