package state

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Sternrassler/minicrm-client/pkg/cache"
	"github.com/Sternrassler/minicrm-client/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClockedState() (*AppState, *cache.Memory, *manualClock) {
	clock := &manualClock{now: time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)}
	store := cache.NewMemory(cache.WithClock(clock.Now))
	return New(Options{Cache: store}), store, clock
}

func TestAppState_CacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newClockedState()
	defer s.Close()

	want := []model.Enterprise{{ID: "1", Name: "Acme Corp"}}
	require.NoError(t, s.SetCacheItem(ctx, "search", want, time.Minute))

	var got []model.Enterprise
	require.True(t, s.GetCacheItem(ctx, "search", &got))
	assert.Equal(t, want, got)
}

func TestAppState_CacheExpiry(t *testing.T) {
	ctx := context.Background()
	s, store, clock := newClockedState()
	defer s.Close()

	require.NoError(t, s.SetCacheItem(ctx, "stats", map[string]int{"total": 3}, 10*time.Minute))

	clock.Advance(10 * time.Minute)
	var got map[string]int
	assert.True(t, s.GetCacheItem(ctx, "stats", &got), "entry is still valid at its expiry instant")

	clock.Advance(time.Millisecond)
	assert.False(t, s.GetCacheItem(ctx, "stats", &got))
	assert.Zero(t, store.Len(), "expired entry is removed from storage")
}

func TestAppState_CacheRejectsNil(t *testing.T) {
	ctx := context.Background()
	s := New(Options{})
	defer s.Close()

	var nilEnterprise *model.Enterprise

	tests := []struct {
		name  string
		value any
	}{
		{"untyped nil", nil},
		{"typed nil pointer", nilEnterprise},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.SetCacheItem(ctx, "k", tt.value, time.Minute)
			assert.True(t, errors.Is(err, ErrNilValue), "got %v", err)
		})
	}
}

func TestAppState_CacheUndecodable(t *testing.T) {
	ctx := context.Background()
	s, store, _ := newClockedState()
	defer s.Close()

	require.NoError(t, s.SetCacheItem(ctx, "k", "text", time.Minute))

	var n int
	assert.False(t, s.GetCacheItem(ctx, "k", &n))
	assert.Zero(t, store.Len())
}

func TestAppState_ClearCache(t *testing.T) {
	ctx := context.Background()
	s, _, clock := newClockedState()
	defer s.Close()

	require.NoError(t, s.SetCacheItem(ctx, "a", 1, time.Second))
	require.NoError(t, s.SetCacheItem(ctx, "b", 2, time.Hour))

	clock.Advance(2 * time.Second)
	assert.Equal(t, cache.Stats{Total: 2, Expired: 1, Active: 1}, s.CacheStats(ctx))

	require.NoError(t, s.ClearCache(ctx))
	assert.Equal(t, cache.Stats{}, s.CacheStats(ctx))
}
