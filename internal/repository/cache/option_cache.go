// Package cache provides a Redis read-through cache for settings options.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/avecnous/shipclass/shipclass-backend/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	keyPrefix = "shipclass:option:"

	// missingMarker caches the absence of an option
	missingMarker = "\x00missing"

	// maxMissingTTL caps how long an absence is cached
	maxMissingTTL = 30 * time.Second
)

// CachedOptionRepository decorates a domain.OptionRepository with Redis.
// Redis errors never fail a call; the underlying repository is used instead.
//
// Writes overwrite the cached entry while reads only fill an empty one (SETNX),
// so a read that raced a write can never replace the written value.
type CachedOptionRepository struct {
	next   domain.OptionRepository
	client redis.UniversalClient
	ttl    time.Duration
}

// Ensure CachedOptionRepository implements domain.OptionRepository
var _ domain.OptionRepository = (*CachedOptionRepository)(nil)

// NewCachedOptionRepository creates a new CachedOptionRepository
func NewCachedOptionRepository(next domain.OptionRepository, client redis.UniversalClient, ttl time.Duration) *CachedOptionRepository {
	return &CachedOptionRepository{
		next:   next,
		client: client,
		ttl:    ttl,
	}
}

// Get reads an option from Redis, falling back to the underlying repository
func (r *CachedOptionRepository) Get(key string) (*domain.Option, error) {
	ctx := context.Background()

	cached, err := r.client.Get(ctx, cacheKey(key)).Result()
	switch {
	case err == nil:
		if cached == missingMarker {
			return nil, domain.ErrNotFound
		}
		if option, ok := decode(key, cached); ok {
			return option, nil
		}
		r.invalidate(ctx, key)
	case !errors.Is(err, redis.Nil):
		log.Warn().Err(err).Str("option", key).Msg("Option cache read failed")
	}

	option, err := r.next.Get(key)
	if errors.Is(err, domain.ErrNotFound) {
		r.fill(ctx, key, missingMarker, r.missingTTL())
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	r.fillOption(ctx, option)
	return option, nil
}

// GetMany reads all keys in one round trip and loads misses from the underlying repository
func (r *CachedOptionRepository) GetMany(keys []string) (map[string]*domain.Option, error) {
	result := make(map[string]*domain.Option, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	ctx := context.Background()
	cacheKeys := make([]string, len(keys))
	for i, key := range keys {
		cacheKeys[i] = cacheKey(key)
	}

	misses := keys
	values, err := r.client.MGet(ctx, cacheKeys...).Result()
	if err != nil {
		log.Warn().Err(err).Int("keys", len(keys)).Msg("Option cache multi-read failed")
	} else {
		misses = make([]string, 0, len(keys))
		for i, v := range values {
			cached, ok := v.(string)
			if !ok {
				misses = append(misses, keys[i])
				continue
			}
			if cached == missingMarker {
				continue
			}
			option, ok := decode(keys[i], cached)
			if !ok {
				r.invalidate(ctx, keys[i])
				misses = append(misses, keys[i])
				continue
			}
			result[keys[i]] = option
		}
	}

	if len(misses) == 0 {
		return result, nil
	}

	loaded, err := r.next.GetMany(misses)
	if err != nil {
		return nil, err
	}
	for _, key := range misses {
		option, ok := loaded[key]
		if !ok {
			r.fill(ctx, key, missingMarker, r.missingTTL())
			continue
		}
		result[key] = option
		r.fillOption(ctx, option)
	}
	return result, nil
}

// Set writes through to the underlying repository and replaces the cached entry
func (r *CachedOptionRepository) Set(key string, value map[string]any) (*domain.Option, error) {
	option, err := r.next.Set(key, value)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	data, err := json.Marshal(option)
	if err != nil {
		log.Warn().Err(err).Str("option", key).Msg("Failed to encode option for cache")
		r.invalidate(ctx, key)
		return option, nil
	}
	r.store(ctx, key, string(data), r.ttl)
	return option, nil
}

// Delete removes the option and caches its absence
func (r *CachedOptionRepository) Delete(key string) error {
	if err := r.next.Delete(key); err != nil {
		return err
	}
	r.store(context.Background(), key, missingMarker, r.missingTTL())
	return nil
}

// ListByPrefix is not cached; it serves admin listings and exports
func (r *CachedOptionRepository) ListByPrefix(prefix string) ([]*domain.Option, error) {
	return r.next.ListByPrefix(prefix)
}

func (r *CachedOptionRepository) fillOption(ctx context.Context, option *domain.Option) {
	data, err := json.Marshal(option)
	if err != nil {
		log.Warn().Err(err).Str("option", option.Key).Msg("Failed to encode option for cache")
		return
	}
	r.fill(ctx, option.Key, string(data), r.ttl)
}

// fill caches a value loaded by a read unless a write got there first
func (r *CachedOptionRepository) fill(ctx context.Context, key, value string, ttl time.Duration) {
	if err := r.client.SetNX(ctx, cacheKey(key), value, ttl).Err(); err != nil {
		log.Warn().Err(err).Str("option", key).Msg("Option cache write failed")
	}
}

func (r *CachedOptionRepository) store(ctx context.Context, key, value string, ttl time.Duration) {
	if err := r.client.Set(ctx, cacheKey(key), value, ttl).Err(); err != nil {
		log.Warn().Err(err).Str("option", key).Msg("Option cache write failed")
		r.invalidate(ctx, key)
	}
}

func (r *CachedOptionRepository) missingTTL() time.Duration {
	if r.ttl <= 0 {
		return maxMissingTTL
	}
	return min(r.ttl, maxMissingTTL)
}

func (r *CachedOptionRepository) invalidate(ctx context.Context, key string) {
	if err := r.client.Del(ctx, cacheKey(key)).Err(); err != nil {
		log.Warn().Err(err).Str("option", key).Msg("Option cache invalidation failed")
	}
}

func decode(key, cached string) (*domain.Option, bool) {
	var option domain.Option
	if err := json.Unmarshal([]byte(cached), &option); err != nil {
		log.Warn().Err(err).Str("option", key).Msg("Discarding corrupt cached option")
		return nil, false
	}
	if option.Value == nil {
		option.Value = make(map[string]any)
	}
	return &option, true
}

func cacheKey(key string) string {
	return keyPrefix + key
}
