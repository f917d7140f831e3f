package inventory

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

const itemKeyPrefix = "item:"

// Cache stores serialized values with a TTL
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedItemSource serves lookups from a cache before asking the wrapped source.
// Cache failures are logged and never fail a lookup.
type CachedItemSource struct {
	source ItemSource
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedItemSource wraps source with cache
func NewCachedItemSource(source ItemSource, cache Cache, ttl time.Duration, logger *zap.Logger) *CachedItemSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedItemSource{
		source: source,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// GetItem returns the cached item or looks it up and caches the result.
// Failed lookups are not cached.
func (s *CachedItemSource) GetItem(ctx context.Context, itemCode string) (*Item, error) {
	key := itemKeyPrefix + itemCode

	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("item cache read failed", zap.String("item_code", itemCode), zap.Error(err))
	}
	if ok {
		var item Item
		if err := json.Unmarshal(data, &item); err == nil {
			return &item, nil
		}
		s.logger.Warn("discarding undecodable cached item", zap.String("item_code", itemCode))
	}

	item, err := s.source.GetItem(ctx, itemCode)
	if err != nil {
		return nil, err
	}

	data, err = json.Marshal(item)
	if err != nil {
		return item, nil
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.logger.Warn("item cache write failed", zap.String("item_code", itemCode), zap.Error(err))
	}
	return item, nil
}

var _ ItemSource = (*CachedItemSource)(nil)
