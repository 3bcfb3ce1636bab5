package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrCacheMiss indicates the requested key was not found or has expired
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Stats summarizes the content of a store.
type Stats struct {
	Total   int `json:"total"`
	Expired int `json:"expired"`
	Active  int `json:"active"`
}

// Store is a TTL key/value store for JSON-encoded values.
type Store interface {
	// Get returns the value stored under key, or ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key for ttl (DefaultTTL if ttl <= 0),
	// overwriting any previous entry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear drops every entry unconditionally.
	Clear(ctx context.Context) error

	// Stats counts the stored entries.
	Stats(ctx context.Context) (Stats, error)
}
