// Package cache provides the client-side TTL cache used to short-circuit
// repeat reads against the CRM webhooks.
//
// The cache has the following properties:
//
// - Caller-chosen TTL per write (search 5 min, stats 10 min, ...)
// - An entry is never returned once its expiry has passed
// - Expired entries are evicted lazily on lookup and swept on every write
// - A miss is reported as ErrCacheMiss, never as a stored nil value
// - Deterministic cache key generation from an operation and its parameters
// - Prometheus metrics for observability
//
// Two Store implementations are provided: Memory (the session cache, the
// default) and Redis (a shared backend for several client processes).
//
// # Basic Usage
//
//	store := cache.NewMemory()
//
//	key := cache.Key{
//		Operation: "search",
//		Params:    map[string]any{"query": "acme", "limit": 20},
//	}
//
//	if err := store.Set(ctx, key.String(), payload, 5*time.Minute); err != nil {
//		return err
//	}
//
//	data, err := store.Get(ctx, key.String())
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the webhook
//	}
//
// # Redis Backend
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	store := cache.NewRedis(redisClient, "minicrm")
//
// # Metrics
//
//   - minicrm_cache_hits_total{layer} - Cache hits
//   - minicrm_cache_misses_total{layer} - Cache misses
//   - minicrm_cache_evictions_total{layer} - Expired entries removed
//   - minicrm_cache_errors_total{operation} - Cache operation errors
package cache
