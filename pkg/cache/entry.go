package cache

import (
	"time"
)

// DefaultTTL is used when a write does not specify a positive TTL.
const DefaultTTL = 5 * time.Minute

// Entry represents a cached value.
type Entry struct {
	// Value is the JSON-encoded cached value
	Value []byte `json:"value"`

	// StoredAt is when the value was written
	StoredAt time.Time `json:"stored_at"`

	// ExpiresAt is when the entry becomes stale
	ExpiresAt time.Time `json:"expires_at"`
}

// newEntry builds an entry stored at now for ttl.
func newEntry(value []byte, now time.Time, ttl time.Duration) Entry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return Entry{
		Value:     value,
		StoredAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

// IsExpired returns true if now is past the entry's expiry.
func (e Entry) IsExpired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// TTL returns the time left at now.
// Returns 0 if already expired.
func (e Entry) TTL(now time.Time) time.Duration {
	ttl := e.ExpiresAt.Sub(now)
	if ttl < 0 {
		return 0
	}
	return ttl
}
