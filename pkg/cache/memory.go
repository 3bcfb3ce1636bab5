package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Store. Expired entries are removed lazily on Get
// and by a sweep on every Set; there is no background goroutine.
type Memory struct {
	mu      sync.Mutex
	entries map[string]Entry
	now     func() time.Time
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithClock replaces time.Now (for testing).
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		m.now = now
	}
}

// NewMemory creates an empty in-memory store.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]Entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get retrieves a value by key.
// Returns ErrCacheMiss if the key doesn't exist or the entry is expired;
// an expired entry is deleted.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		CacheMisses.WithLabelValues(layerMemory).Inc()
		return nil, ErrCacheMiss
	}

	if entry.IsExpired(m.now()) {
		delete(m.entries, key)
		CacheEvictions.WithLabelValues(layerMemory).Inc()
		CacheMisses.WithLabelValues(layerMemory).Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues(layerMemory).Inc()
	return entry.Value, nil
}

// Set stores a value and sweeps expired entries.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.entries[key] = newEntry(value, now, ttl)
	m.sweepLocked(now)
	return nil
}

// Delete removes an entry.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Clear drops every entry.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	m.entries = make(map[string]Entry)
	m.mu.Unlock()
	return nil
}

// Stats counts total, expired and active entries.
func (m *Memory) Stats(_ context.Context) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	s := Stats{Total: len(m.entries)}
	for _, e := range m.entries {
		if e.IsExpired(now) {
			s.Expired++
		}
	}
	s.Active = s.Total - s.Expired
	return s, nil
}

// Sweep removes expired entries and returns how many were removed.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepLocked(m.now())
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) sweepLocked(now time.Time) int {
	removed := 0
	for key, e := range m.entries {
		if e.IsExpired(now) {
			delete(m.entries, key)
			removed++
		}
	}
	if removed > 0 {
		CacheEvictions.WithLabelValues(layerMemory).Add(float64(removed))
	}
	return removed
}
