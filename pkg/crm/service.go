// Package crm implements the CRM operations on top of the webhook client:
// enterprise search, qualifications, document generation, statistics,
// enterprise creation, e-mail and the assistant agent.
//
// Results are cached in the session store under keys built from the
// operation and its parameters. Every operation reports progress through
// the session status.
package crm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/minicrm-client/pkg/cache"
	"github.com/Sternrassler/minicrm-client/pkg/client"
	"github.com/Sternrassler/minicrm-client/pkg/config"
	"github.com/Sternrassler/minicrm-client/pkg/logging"
	"github.com/Sternrassler/minicrm-client/pkg/state"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Cache lifetimes per operation. Search uses the registry cache TTL.
const (
	QualificationTTL = 5 * time.Minute
	StatsTTL         = 10 * time.Minute
)

// DefaultStatsKind is the statistics report loaded when none is named.
const DefaultStatsKind = "renouvellement"

// Options configures a Service.
type Options struct {
	// Logger (default: global logger)
	Logger *zerolog.Logger

	// Now returns the current time (default: time.Now)
	Now func() time.Time
}

// Service runs the CRM operations for one session.
type Service struct {
	client   *client.Client
	state    *state.AppState
	registry *config.Registry
	logger   zerolog.Logger
	now      func() time.Time

	// fetches coalesces identical concurrent cache misses
	fetches singleflight.Group
}

// New creates a service. All three dependencies are required.
func New(c *client.Client, st *state.AppState, registry *config.Registry, opts Options) (*Service, error) {
	switch {
	case c == nil:
		return nil, errors.New("client is required")
	case st == nil:
		return nil, errors.New("state is required")
	case registry == nil:
		return nil, errors.New("registry is required")
	}

	logger := logging.Component(opts.Logger, "crm")

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		client:   c,
		state:    st,
		registry: registry,
		logger:   logger,
		now:      now,
	}, nil
}

// State returns the session store the service writes to.
func (s *Service) State() *state.AppState {
	return s.state
}

// userID returns the id of the session user, or 0.
func (s *Service) userID() int64 {
	if u, ok := s.state.User(); ok {
		return u.ID
	}
	return 0
}

// envelope builds a request envelope stamped with the session user.
func (s *Service) envelope(action string, data any) client.Envelope {
	env := client.NewEnvelope(action, data, s.userID())
	env.Meta.Timestamp = s.now().UTC()
	return env
}

// fail sets the error status and returns err unchanged.
func (s *Service) fail(ctx context.Context, prefix string, err error) error {
	s.state.SetError(ctx, fmt.Sprintf("%s: %s", prefix, err.Error()))
	return err
}

// cacheKey builds the session cache key of an operation.
func cacheKey(op string, params map[string]any) string {
	return cache.Key{Operation: op, Params: params}.String()
}

// store caches value and logs failures. Caching is best effort.
func (s *Service) store(ctx context.Context, key string, value any, ttl time.Duration) {
	if err := s.state.SetCacheItem(ctx, key, value, ttl); err != nil {
		s.logger.Warn().Err(err).Str("cache_key", key).Msg("Result not cached")
	}
}

// APIStats describes the cache and client configuration.
type APIStats struct {
	Cache  cache.Stats  `json:"cache"`
	Client client.Stats `json:"configuration"`
}

// APIStats returns cache statistics and the client defaults.
func (s *Service) APIStats(ctx context.Context) APIStats {
	return APIStats{
		Cache:  s.state.CacheStats(ctx),
		Client: s.client.Stats(),
	}
}
