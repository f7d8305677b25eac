package feargreed

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/fng-signal/internal/sentiment"
	"github.com/selivandex/fng-signal/pkg/logger"
	"github.com/selivandex/fng-signal/pkg/models"
)

// Cache stores raw payloads with a TTL
type Cache interface {
	GetBytes(ctx context.Context, key string) ([]byte, bool, error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedSource decorates a Source with a payload cache. Cache failures never
// fail the fetch; they only cost an upstream request.
type CachedSource struct {
	source Source
	cache  Cache
	ttl    time.Duration
}

// NewCachedSource creates new cached Fear & Greed source
func NewCachedSource(source Source, cache Cache, ttl time.Duration) *CachedSource {
	return &CachedSource{source: source, cache: cache, ttl: ttl}
}

// CacheKey is the cache key of a payload fetched from start
func CacheKey(start time.Time) string {
	return fmt.Sprintf("fng:graphdata:%s", models.DateKey(start))
}

func (c *CachedSource) FetchHistory(ctx context.Context, start time.Time) ([]byte, error) {
	key := CacheKey(start)

	cached, ok, err := c.cache.GetBytes(ctx, key)
	if err != nil {
		logger.Warn("fear and greed cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		logger.Debug("fear and greed cache hit", zap.String("key", key))
		return cached, nil
	}

	payload, err := c.source.FetchHistory(ctx, start)
	if err != nil {
		return nil, err
	}

	// a payload the normalizer rejects would degrade every run for the whole TTL
	if _, err := sentiment.Normalize(payload); err != nil {
		logger.Warn("fear and greed payload not cached", zap.String("key", key), zap.Error(err))
		return payload, nil
	}

	if err := c.cache.SetBytes(ctx, key, payload, c.ttl); err != nil {
		logger.Warn("fear and greed cache write failed", zap.String("key", key), zap.Error(err))
	}

	return payload, nil
}
