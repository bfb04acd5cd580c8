package database

import (
	"context"
	"encoding/json"
	"time"

	"github.com/earthrise-media/featurestore/model"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	cacheKeyPrefix      = "feature:"
	generationKeyPrefix = "feature-gen:"
)

var errStaleRead = errors.New("feature changed while it was being read")

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// CachedFeatureController serves GetById from Redis when it can and falls
// back to the wrapped repository otherwise. Redis failures never fail a call.
//
// Writers bump a per-id generation after every update or delete. A cache miss
// only backfills when the generation is still the one seen before the store
// read, so a read racing a write never caches the old document.
type CachedFeatureController struct {
	FeatureRepository
	redis *redis.Client
	ttl   time.Duration
}

func NewCachedFeatureController(repo FeatureRepository, client *redis.Client, ttl time.Duration) *CachedFeatureController {
	return &CachedFeatureController{FeatureRepository: repo, redis: client, ttl: ttl}
}

func cacheKey(id string) string {
	return cacheKeyPrefix + id
}

func generationKey(id string) string {
	return generationKeyPrefix + id
}

func (cc *CachedFeatureController) GetById(ctx context.Context, id string) (model.Feature, error) {
	data, err := cc.redis.Get(ctx, cacheKey(id)).Bytes()
	switch {
	case err == nil:
		var f model.Feature
		if err := json.Unmarshal(data, &f); err == nil {
			return f, nil
		}
		zap.S().Warnf("dropping unreadable cache entry for %s", id)
		cc.redis.Del(ctx, cacheKey(id))
	case err != redis.Nil:
		zap.S().Warnf("feature cache read failed: %s", err.Error())
	}

	gen, genErr := cc.generation(ctx, cc.redis, id)

	f, err := cc.FeatureRepository.GetById(ctx, id)
	if err != nil {
		return model.Feature{}, err
	}
	if genErr == nil {
		cc.backfill(ctx, f, gen)
	}
	return f, nil
}

func (cc *CachedFeatureController) Update(ctx context.Context, id string, update model.UpdateFeature) (model.Feature, error) {
	f, err := cc.FeatureRepository.Update(ctx, id, update)
	cc.invalidate(ctx, id)
	return f, err
}

func (cc *CachedFeatureController) DeleteById(ctx context.Context, id string) error {
	err := cc.FeatureRepository.DeleteById(ctx, id)
	cc.invalidate(ctx, id)
	return err
}

func (cc *CachedFeatureController) Close() {
	if err := cc.redis.Close(); err != nil {
		zap.S().Warnf("error closing redis: %s", err.Error())
	}
	cc.FeatureRepository.Close()
}

// generation reads the write counter of id; a missing key is generation 0.
func (cc *CachedFeatureController) generation(ctx context.Context, c getter, id string) (int64, error) {
	gen, err := c.Get(ctx, generationKey(id)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		zap.S().Warnf("feature cache generation read failed: %s", err.Error())
		return 0, err
	}
	return gen, nil
}

// backfill caches f unless a writer touched it since gen was read.
func (cc *CachedFeatureController) backfill(ctx context.Context, f model.Feature, gen int64) {
	data, err := json.Marshal(f)
	if err != nil {
		return
	}

	err = cc.redis.Watch(ctx, func(tx *redis.Tx) error {
		current, err := cc.generation(ctx, tx, f.ID)
		if err != nil {
			return err
		}
		if current != gen {
			return errStaleRead
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, cacheKey(f.ID), data, cc.ttl)
			return nil
		})
		return err
	}, generationKey(f.ID))

	switch {
	case err == nil:
	case errors.Is(err, errStaleRead), errors.Is(err, redis.TxFailedErr):
		zap.S().Debugf("not caching %s, it changed during the read", f.ID)
	default:
		zap.S().Warnf("feature cache write failed: %s", err.Error())
	}
}

// invalidate bumps the generation of id and drops its cache entry.
func (cc *CachedFeatureController) invalidate(ctx context.Context, id string) {
	_, err := cc.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(id))
		if cc.ttl > 0 {
			pipe.Expire(ctx, generationKey(id), cc.ttl)
		}
		pipe.Del(ctx, cacheKey(id))
		return nil
	})
	if err != nil {
		zap.S().Warnf("feature cache evict failed: %s", err.Error())
	}
}
