package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/avecnous/shipclass/shipclass-backend/internal/domain"
	"github.com/avecnous/shipclass/shipclass-backend/internal/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCache(t *testing.T) (*CachedOptionRepository, *testutil.MockOptionRepository, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	next := testutil.NewMockOptionRepository()
	return NewCachedOptionRepository(next, client, time.Minute), next, mr
}

func TestCachedOptionRepository_GetReadsThrough(t *testing.T) {
	repo, next, mr := setupCache(t)
	next.AddOption("disable_shipping_methods_by_classes_fragile", map[string]any{"flat_rate:1": "yes"})

	first, err := repo.Get("disable_shipping_methods_by_classes_fragile")
	require.NoError(t, err)
	second, err := repo.Get("disable_shipping_methods_by_classes_fragile")
	require.NoError(t, err)

	assert.Equal(t, 1, next.GetCalls)
	assert.Equal(t, "yes", first.Value["flat_rate:1"])
	assert.Equal(t, first.Value, second.Value)
	assert.True(t, mr.Exists("shipclass:option:disable_shipping_methods_by_classes_fragile"))
}

func TestCachedOptionRepository_GetCachesMissing(t *testing.T) {
	repo, next, _ := setupCache(t)

	_, err := repo.Get("disable_shipping_methods_by_classes_bulky")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = repo.Get("disable_shipping_methods_by_classes_bulky")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, 1, next.GetCalls)
}

func TestCachedOptionRepository_GetPropagatesStorageErrors(t *testing.T) {
	repo, next, mr := setupCache(t)
	next.GetFn = func(key string) (*domain.Option, error) {
		return nil, errors.New("connection refused")
	}

	_, err := repo.Get("disable_shipping_methods_by_classes_fragile")
	assert.EqualError(t, err, "connection refused")
	assert.False(t, mr.Exists("shipclass:option:disable_shipping_methods_by_classes_fragile"))
}

func TestCachedOptionRepository_GetManyMixesHitsAndMisses(t *testing.T) {
	repo, next, _ := setupCache(t)
	next.AddOption("disable_shipping_methods_by_classes_fragile", map[string]any{"flat_rate:1": "yes"})
	next.AddOption("disable_shipping_methods_by_classes_bulky", map[string]any{"local_pickup:3": "yes"})

	_, err := repo.Get("disable_shipping_methods_by_classes_fragile")
	require.NoError(t, err)

	var requested []string
	next.GetManyFn = func(keys []string) (map[string]*domain.Option, error) {
		requested = keys
		result := make(map[string]*domain.Option)
		for _, key := range keys {
			if option, ok := next.Options[key]; ok {
				result[key] = option
			}
		}
		return result, nil
	}

	options, err := repo.GetMany([]string{
		"disable_shipping_methods_by_classes_fragile",
		"disable_shipping_methods_by_classes_bulky",
		"disable_shipping_methods_by_classes_standard",
	})
	require.NoError(t, err)

	assert.Len(t, options, 2)
	assert.Equal(t, []string{
		"disable_shipping_methods_by_classes_bulky",
		"disable_shipping_methods_by_classes_standard",
	}, requested)

	// Second call is served entirely from Redis, including the missing marker
	requested = nil
	options, err = repo.GetMany([]string{
		"disable_shipping_methods_by_classes_bulky",
		"disable_shipping_methods_by_classes_standard",
	})
	require.NoError(t, err)
	assert.Len(t, options, 1)
	assert.Nil(t, requested)
}

func TestCachedOptionRepository_SetReplacesCachedEntry(t *testing.T) {
	repo, next, _ := setupCache(t)
	key := "disable_shipping_methods_by_classes_fragile"
	next.AddOption(key, map[string]any{"flat_rate:1": "yes"})

	_, err := repo.Get(key)
	require.NoError(t, err)

	_, err = repo.Set(key, map[string]any{"flat_rate:1": "no"})
	require.NoError(t, err)

	option, err := repo.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "no", option.Value["flat_rate:1"])
	assert.Equal(t, 1, next.GetCalls)
}

func TestCachedOptionRepository_SetReplacesMissingMarker(t *testing.T) {
	repo, next, _ := setupCache(t)
	key := "disable_shipping_methods_by_classes_bulky"

	_, err := repo.Get(key)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.Set(key, map[string]any{"local_pickup:3": "yes"})
	require.NoError(t, err)

	option, err := repo.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "yes", option.Value["local_pickup:3"])
	assert.Equal(t, 1, next.GetCalls)
}

func TestCachedOptionRepository_DeleteCachesAbsence(t *testing.T) {
	repo, next, mr := setupCache(t)
	key := "disable_shipping_methods_by_classes_fragile"
	next.AddOption(key, map[string]any{"flat_rate:1": "yes"})

	_, err := repo.Get(key)
	require.NoError(t, err)
	require.NoError(t, repo.Delete(key))

	cached, err := mr.Get("shipclass:option:" + key)
	require.NoError(t, err)
	assert.Equal(t, missingMarker, cached)
	assert.LessOrEqual(t, mr.TTL("shipclass:option:"+key), maxMissingTTL)

	_, err = repo.Get(key)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 1, next.GetCalls)
}

func TestCachedOptionRepository_MissingMarkerHasShortTTL(t *testing.T) {
	repo, _, mr := setupCache(t)
	key := "disable_shipping_methods_by_classes_bulky"

	_, err := repo.Get(key)
	require.ErrorIs(t, err, domain.ErrNotFound)

	ttl := mr.TTL("shipclass:option:" + key)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, maxMissingTTL)

	mr.FastForward(maxMissingTTL + time.Second)
	assert.False(t, mr.Exists("shipclass:option:"+key))
}

func TestCachedOptionRepository_SaveDuringReadMissIsNotHidden(t *testing.T) {
	repo, next, _ := setupCache(t)
	key := "disable_shipping_methods_by_classes_fragile"

	// The read loads "not found", then a save lands before the read fills the cache
	next.GetFn = func(k string) (*domain.Option, error) {
		_, err := repo.Set(k, map[string]any{"flat_rate:1": "yes"})
		require.NoError(t, err)
		return nil, domain.ErrNotFound
	}

	_, err := repo.Get(key)
	require.ErrorIs(t, err, domain.ErrNotFound)
	next.GetFn = nil

	option, err := repo.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "yes", option.Value["flat_rate:1"])
}

func TestCachedOptionRepository_SaveDuringGetManyMissIsNotHidden(t *testing.T) {
	repo, next, _ := setupCache(t)
	key := "disable_shipping_methods_by_classes_fragile"

	next.GetManyFn = func(keys []string) (map[string]*domain.Option, error) {
		_, err := repo.Set(key, map[string]any{"flat_rate:1": "yes"})
		require.NoError(t, err)
		return map[string]*domain.Option{}, nil
	}

	options, err := repo.GetMany([]string{key})
	require.NoError(t, err)
	assert.Empty(t, options)
	next.GetManyFn = nil

	options, err = repo.GetMany([]string{key})
	require.NoError(t, err)
	require.Contains(t, options, key)
	assert.Equal(t, "yes", options[key].Value["flat_rate:1"])
}

func TestCachedOptionRepository_DeleteDuringReadIsNotHidden(t *testing.T) {
	repo, next, _ := setupCache(t)
	key := "disable_shipping_methods_by_classes_fragile"
	next.AddOption(key, map[string]any{"flat_rate:1": "yes"})

	// The read loads the old option, then a clear lands before the read fills the cache
	next.GetFn = func(k string) (*domain.Option, error) {
		stale := next.Options[k]
		require.NoError(t, repo.Delete(k))
		return stale, nil
	}

	_, err := repo.Get(key)
	require.NoError(t, err)
	next.GetFn = nil

	_, err = repo.Get(key)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCachedOptionRepository_FallsBackWhenRedisDown(t *testing.T) {
	repo, next, mr := setupCache(t)
	next.AddOption("disable_shipping_methods_by_classes_fragile", map[string]any{"flat_rate:1": "yes"})
	mr.Close()

	option, err := repo.Get("disable_shipping_methods_by_classes_fragile")
	require.NoError(t, err)
	assert.Equal(t, "yes", option.Value["flat_rate:1"])

	options, err := repo.GetMany([]string{"disable_shipping_methods_by_classes_fragile"})
	require.NoError(t, err)
	assert.Len(t, options, 1)
}

func TestCachedOptionRepository_DiscardsCorruptEntries(t *testing.T) {
	repo, next, mr := setupCache(t)
	key := "disable_shipping_methods_by_classes_fragile"
	next.AddOption(key, map[string]any{"flat_rate:1": "yes"})
	require.NoError(t, mr.Set("shipclass:option:"+key, "{not json"))

	option, err := repo.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "yes", option.Value["flat_rate:1"])
	assert.Equal(t, 1, next.GetCalls)

	// The corrupt entry was replaced by the reloaded option
	_, err = repo.Get(key)
	require.NoError(t, err)
	assert.Equal(t, 1, next.GetCalls)
}
