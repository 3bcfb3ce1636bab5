package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/minicrm-client/pkg/cache"
)

// ErrNilValue is returned when caching a nil value. A miss and a cached nil
// would be indistinguishable.
var ErrNilValue = errors.New("cannot cache nil value")

// SetCacheItem JSON-encodes value and stores it under key for ttl
// (cache.DefaultTTL if ttl <= 0).
func (s *AppState) SetCacheItem(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache item: %w", err)
	}
	if bytes.Equal(data, []byte("null")) {
		return ErrNilValue
	}

	if err := s.cache.Set(ctx, key, data, ttl); err != nil {
		return err
	}

	s.logger.Debug().Str("cache_key", key).Dur("ttl", ttl).Msg("Cache set")
	return nil
}

// GetCacheItem decodes the value stored under key into dst and reports
// whether it was found. Store and decode errors are logged and reported as
// a miss.
func (s *AppState) GetCacheItem(ctx context.Context, key string, dst any) bool {
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Debug().Str("cache_key", key).Msg("Cache miss")
		} else {
			s.logger.Warn().Err(err).Str("cache_key", key).Msg("Cache read failed")
		}
		return false
	}

	if err := json.Unmarshal(data, dst); err != nil {
		s.logger.Warn().Err(err).Str("cache_key", key).Msg("Cache entry undecodable, dropping")
		_ = s.cache.Delete(ctx, key)
		return false
	}

	s.logger.Debug().Str("cache_key", key).Msg("Cache hit")
	return true
}

// DeleteCacheItem removes key.
func (s *AppState) DeleteCacheItem(ctx context.Context, key string) error {
	return s.cache.Delete(ctx, key)
}

// ClearCache drops every cached entry.
func (s *AppState) ClearCache(ctx context.Context) error {
	if err := s.cache.Clear(ctx); err != nil {
		return err
	}
	s.logger.Debug().Msg("Cache cleared")
	return nil
}

// CacheStats counts cached entries. Errors are logged and reported as empty
// stats.
func (s *AppState) CacheStats(ctx context.Context) cache.Stats {
	stats, err := s.cache.Stats(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Cache stats failed")
		return cache.Stats{}
	}
	return stats
}
