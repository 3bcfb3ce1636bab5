package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store backed by Redis. Entries are JSON-encoded and also carry
// a native Redis TTL, so Redis drops them on its own once they expire.
type Redis struct {
	redis  *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedis creates a Redis-backed store. All keys are namespaced under prefix.
func NewRedis(redisClient *redis.Client, prefix string) *Redis {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if prefix == "" {
		prefix = "minicrm"
	}
	return &Redis{
		redis:  redisClient,
		prefix: prefix,
		now:    time.Now,
	}
}

func (r *Redis) key(key string) string {
	return r.prefix + ":" + key
}

// Get retrieves a value by key.
// Returns ErrCacheMiss if the key doesn't exist or the entry is expired.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.redis.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			CacheMisses.WithLabelValues(layerRedis).Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	// Redis expiry has millisecond granularity; the entry's own expiry wins.
	if entry.IsExpired(r.now()) {
		_ = r.Delete(ctx, key)
		CacheEvictions.WithLabelValues(layerRedis).Inc()
		CacheMisses.WithLabelValues(layerRedis).Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues(layerRedis).Inc()
	return entry.Value, nil
}

// Set stores a value with TTL (DefaultTTL if ttl <= 0).
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	entry := newEntry(value, r.now(), ttl)

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := r.redis.Set(ctx, r.key(key), data, entry.TTL(entry.StoredAt)).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

// Delete removes a cache entry.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.redis.Del(ctx, r.key(key)).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Clear removes every key under the store prefix.
func (r *Redis) Clear(ctx context.Context) error {
	keys, err := r.scan(ctx)
	if err != nil {
		CacheErrors.WithLabelValues("clear").Inc()
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.redis.Del(ctx, keys...).Err(); err != nil {
		CacheErrors.WithLabelValues("clear").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Stats counts the keys under the store prefix. Redis evicts expired keys
// itself, so Expired only counts entries inside the sub-millisecond window.
func (r *Redis) Stats(ctx context.Context) (Stats, error) {
	keys, err := r.scan(ctx)
	if err != nil {
		return Stats{}, err
	}

	s := Stats{Total: len(keys)}
	if len(keys) == 0 {
		return s, nil
	}

	values, err := r.redis.MGet(ctx, keys...).Result()
	if err != nil {
		return Stats{}, fmt.Errorf("redis mget: %w", err)
	}

	now := r.now()
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// key vanished between SCAN and MGET
			s.Total--
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil || entry.IsExpired(now) {
			s.Expired++
		}
	}
	s.Active = s.Total - s.Expired
	return s, nil
}

func (r *Redis) scan(ctx context.Context) ([]string, error) {
	var keys []string
	iter := r.redis.Scan(ctx, 0, r.prefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return keys, nil
}
