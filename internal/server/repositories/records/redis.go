package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/logm8/logmate/internal/common"
	"github.com/logm8/logmate/internal/server/models"
	"github.com/redis/go-redis/v9"
)

// RedisRepository keeps records as JSON under "record:{id}" and a sorted
// set "tagrecords:{tagId}" scored by serviced date.
type RedisRepository struct {
	client redis.Cmdable
	newID  func() string
}

func NewRedisRepository(client redis.Cmdable) *RedisRepository {
	return &RedisRepository{client: client, newID: uuid.NewString}
}

func recordKey(id string) string { return "record:" + id }

func indexKey(tagID string) string { return "tagrecords:" + tagID }

func score(r *models.Record) float64 {
	return float64(r.ServicedAt().Unix())
}

func (s *RedisRepository) put(ctx context.Context, r *models.Record) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, recordKey(r.ID), raw, 0)
		p.ZAdd(ctx, indexKey(r.TagID), redis.Z{Score: score(r), Member: r.ID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (s *RedisRepository) Create(ctx context.Context, r *models.Record) error {
	if r.ID == "" {
		r.ID = s.newID()
	}
	return s.put(ctx, r)
}

func (s *RedisRepository) Get(ctx context.Context, id string) (*models.Record, error) {
	raw, err := s.client.Get(ctx, recordKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("redis error: %w", err)
	}
	rec := &models.Record{}
	if err := json.Unmarshal(raw, rec); err != nil {
		return nil, fmt.Errorf("decode record %q: %w", id, err)
	}
	return rec, nil
}

func (s *RedisRepository) Update(ctx context.Context, r *models.Record) error {
	current, err := s.Get(ctx, r.ID)
	if err != nil {
		return err
	}
	if current.TagID != r.TagID {
		return fmt.Errorf("%w: record %s belongs to another tag", common.ErrorValidation, r.ID)
	}
	return s.put(ctx, r)
}

func (s *RedisRepository) ListByTag(ctx context.Context, tagID string) ([]*models.Record, error) {
	ids, err := s.client.ZRevRange(ctx, indexKey(tagID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}
	if len(ids) == 0 {
		return []*models.Record{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = recordKey(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}

	out := make([]*models.Record, 0, len(vals))
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			// index entry without a document
			continue
		}
		rec := &models.Record{}
		if err := json.Unmarshal([]byte(str), rec); err != nil {
			return nil, fmt.Errorf("decode record %q: %w", ids[i], err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *RedisRepository) MigrateTag(ctx context.Context, oldTagID, newTagID string, at time.Time) (int, error) {
	recs, err := s.ListByTag(ctx, oldTagID)
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, rec := range recs {
		oldID := rec.ID
		rec.ID = s.newID()
		rec.TagID = newTagID
		rec.Comment = fmt.Sprintf("%s (Migrated from TagId %s at %s)", rec.Comment, oldTagID, at.UTC().Format(time.RFC3339))

		raw, err := json.Marshal(rec)
		if err != nil {
			return moved, err
		}
		_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, recordKey(rec.ID), raw, 0)
			p.ZAdd(ctx, indexKey(newTagID), redis.Z{Score: score(rec), Member: rec.ID})
			p.Del(ctx, recordKey(oldID))
			p.ZRem(ctx, indexKey(oldTagID), oldID)
			return nil
		})
		if err != nil {
			return moved, fmt.Errorf("redis error: %w", err)
		}
		moved++
	}
	return moved, nil
}
