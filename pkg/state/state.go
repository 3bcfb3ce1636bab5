// Package state implements AppState, the session store shared by the CRM
// components: navigation with a bounded history, the selected enterprise and
// action, status text, search results, publications, a TTL cache facade,
// named debounce timers and an event bus.
//
// AppState is explicitly constructed and passed to its users. Close releases
// timers, subscriptions and cached entries.
//
// Mutating methods publish their change on the bus after the state lock is
// released, so handlers may call back into AppState.
package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/minicrm-client/pkg/cache"
	"github.com/Sternrassler/minicrm-client/pkg/config"
	"github.com/Sternrassler/minicrm-client/pkg/events"
	"github.com/Sternrassler/minicrm-client/pkg/logging"
	"github.com/Sternrassler/minicrm-client/pkg/model"
	"github.com/rs/zerolog"
)

// NavState is a navigation tag.
type NavState string

// Navigation states.
const (
	StateMainMenu NavState = "main_menu"
	StateSearch   NavState = "search"
)

// ActionState returns the navigation state of an action screen.
func ActionState(a config.Action) NavState {
	return NavState("action_" + string(a))
}

// MaxHistory is the depth of the navigation history.
const MaxHistory = 10

var (
	// ErrClosed is returned by operations on a closed AppState.
	ErrClosed = errors.New("state closed")

	// ErrInvalidAction is returned when setting an action the registry does not know.
	ErrInvalidAction = errors.New("invalid action")
)

// Options configures an AppState.
type Options struct {
	// Cache backs the cache facade (default: in-memory store)
	Cache cache.Store

	// Bus carries change notifications (default: new bus)
	Bus *events.Bus

	// Registry validates actions when set
	Registry *config.Registry

	// Logger (default: global logger)
	Logger *zerolog.Logger
}

// AppState is the session store. It is safe for concurrent use.
type AppState struct {
	mu sync.Mutex

	current NavState
	history []NavState

	enterprise *model.Enterprise
	action     config.Action
	status     Status

	searchResults []model.Enterprise
	searchQuery   string

	publications       []model.Publication
	publicationCounter int

	qualification *model.Qualification
	offer         *model.Offer
	user          *model.User

	timers map[string]*timer
	closed bool

	cache    cache.Store
	bus      *events.Bus
	registry *config.Registry
	logger   zerolog.Logger
}

// New creates an AppState on the main menu.
func New(opts Options) *AppState {
	logger := logging.Component(opts.Logger, "state")

	store := opts.Cache
	if store == nil {
		store = cache.NewMemory()
	}

	bus := opts.Bus
	if bus == nil {
		bus = events.NewBus(opts.Logger)
	}

	return &AppState{
		current:  StateMainMenu,
		timers:   make(map[string]*timer),
		cache:    store,
		bus:      bus,
		registry: opts.Registry,
		logger:   logger,
	}
}

// Close clears timers, subscriptions and cached entries. Further timers are
// refused. Close is idempotent.
func (s *AppState) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.ClearAllTimeouts()
	s.bus.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.cache.Clear(ctx); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}

	s.logger.Debug().Msg("AppState closed")
	return nil
}

// Subscribe registers a handler on the state bus.
func (s *AppState) Subscribe(event string, handler events.Handler, opts ...events.Option) *events.Subscription {
	return s.bus.Subscribe(event, handler, opts...)
}

// Unsubscribe removes a subscription by id.
func (s *AppState) Unsubscribe(event, id string) bool {
	return s.bus.Unsubscribe(event, id)
}

// Notify publishes an event on the state bus.
func (s *AppState) Notify(ctx context.Context, event string, payload any) int {
	return s.bus.Notify(ctx, event, payload)
}

// SetState moves to next, pushing the current state onto the history.
// The oldest history entry is dropped past MaxHistory.
func (s *AppState) SetState(ctx context.Context, next NavState) {
	s.mu.Lock()
	old := s.current
	s.history = append(s.history, old)
	if len(s.history) > MaxHistory {
		s.history = append(s.history[:0:0], s.history[len(s.history)-MaxHistory:]...)
	}
	s.current = next
	change := StateChange{Old: old, New: next, CanGoBack: len(s.history) > 0}
	s.mu.Unlock()

	s.logger.Info().Str("from", string(old)).Str("to", string(next)).Msg("State changed")
	s.bus.Notify(ctx, EventStateChange, change)
}

// GoBack pops the history. It returns false, and changes nothing, when the
// history is empty.
func (s *AppState) GoBack(ctx context.Context) (NavState, bool) {
	s.mu.Lock()
	if len(s.history) == 0 {
		s.mu.Unlock()
		return "", false
	}
	old := s.current
	prev := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	s.current = prev
	change := StateChange{Old: old, New: prev, CanGoBack: len(s.history) > 0, IsBack: true}
	s.mu.Unlock()

	s.logger.Info().Str("from", string(old)).Str("to", string(prev)).Msg("State restored")
	s.bus.Notify(ctx, EventStateChange, change)
	return prev, true
}

// CurrentState returns the current navigation state.
func (s *AppState) CurrentState() NavState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// History returns a copy of the history, oldest first.
func (s *AppState) History() []NavState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]NavState(nil), s.history...)
}

// CanGoBack reports whether the history is non-empty.
func (s *AppState) CanGoBack() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history) > 0
}

// ClearHistory empties the history without changing the current state.
func (s *AppState) ClearHistory() {
	s.mu.Lock()
	s.history = nil
	s.mu.Unlock()
}

// Reset restores navigation and domain selections to their defaults.
// Cache, timers and subscriptions are kept.
func (s *AppState) Reset(ctx context.Context) {
	s.mu.Lock()
	s.current = StateMainMenu
	s.history = nil
	s.enterprise = nil
	s.action = ""
	s.offer = nil
	s.mu.Unlock()

	s.ClearSearchResults(ctx)
	s.ClearPublications(ctx)
	s.ClearQualification(ctx)

	s.logger.Info().Msg("AppState reset")
}
