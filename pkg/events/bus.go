// Package events provides a synchronous publish/subscribe bus.
//
// Handlers run on the notifying goroutine, in registration order. A handler
// that panics or returns an error is logged and never prevents later
// handlers from running. Every Subscribe returns a *Subscription whose Close
// releases it; components must close their subscriptions on teardown.
package events

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Sternrassler/minicrm-client/pkg/logging"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// MaxDepth bounds nested notifications of the same event. A handler that
// re-notifies the event it is handling is allowed MaxDepth levels deep.
const MaxDepth = 8

var handlerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "minicrm_event_handler_failures_total",
	Help: "Total number of event handlers that panicked or returned an error",
}, []string{"event"})

// Event is delivered to handlers.
type Event struct {
	Name    string
	Payload any
}

// Handler handles one event.
type Handler func(ctx context.Context, ev Event) error

// Option configures a subscription.
type Option func(*Subscription)

// Once removes the subscription after its first invocation.
func Once() Option {
	return func(s *Subscription) {
		s.once = true
	}
}

// WithID sets the subscription id. A later subscription with the same id on
// the same event replaces the earlier one.
func WithID(id string) Option {
	return func(s *Subscription) {
		if id != "" {
			s.id = id
		}
	}
}

// Subscription is a registered handler. Close releases it.
type Subscription struct {
	bus     *Bus
	event   string
	id      string
	once    bool
	handler Handler

	fired  atomic.Bool
	closed atomic.Bool
}

// ID returns the subscription id.
func (s *Subscription) ID() string { return s.id }

// Event returns the subscribed event name.
func (s *Subscription) Event() string { return s.event }

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription) Close() {
	if s == nil || s.closed.Swap(true) {
		return
	}
	s.bus.remove(s)
}

// Bus dispatches events to subscribers.
type Bus struct {
	mu     sync.Mutex
	subs   map[string][]*Subscription
	logger zerolog.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *zerolog.Logger) *Bus {
	l := logging.Component(logger, "events")
	return &Bus{
		subs:   make(map[string][]*Subscription),
		logger: l,
	}
}

// Subscribe registers handler for event.
func (b *Bus) Subscribe(event string, handler Handler, opts ...Option) *Subscription {
	s := &Subscription{
		bus:     b,
		event:   event,
		id:      uuid.NewString(),
		handler: handler,
	}
	for _, opt := range opts {
		opt(s)
	}

	b.mu.Lock()
	var replaced *Subscription
	list := b.subs[event]
	for i, existing := range list {
		if existing.id == s.id {
			replaced = existing
			list = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	b.subs[event] = append(list, s)
	b.mu.Unlock()

	if replaced != nil {
		replaced.closed.Store(true)
	}

	b.logger.Debug().
		Str("event", event).
		Str("subscription", s.id).
		Bool("once", s.once).
		Msg("Subscribed")

	return s
}

// Unsubscribe removes the subscription with id from event.
// Returns true if a subscription was removed.
func (b *Bus) Unsubscribe(event, id string) bool {
	b.mu.Lock()
	var found *Subscription
	for _, s := range b.subs[event] {
		if s.id == id {
			found = s
			break
		}
	}
	b.mu.Unlock()

	if found == nil || found.closed.Swap(true) {
		return false
	}
	b.remove(found)
	return true
}

func (b *Bus) remove(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.subs[s.event]
	for i, existing := range list {
		if existing == s {
			// copy so that snapshots taken by running notifications stay intact
			next := make([]*Subscription, 0, len(list)-1)
			next = append(next, list[:i]...)
			next = append(next, list[i+1:]...)
			if len(next) == 0 {
				delete(b.subs, s.event)
			} else {
				b.subs[s.event] = next
			}
			return
		}
	}
}

type depthKey struct{ event string }

// Notify calls every handler subscribed to event, in registration order,
// and returns how many handlers ran.
//
// Nesting is tracked through ctx: a handler that notifies the same event
// again must pass on the ctx it received. Past MaxDepth the notification is
// dropped.
func (b *Bus) Notify(ctx context.Context, event string, payload any) int {
	depth, _ := ctx.Value(depthKey{event}).(int)
	if depth >= MaxDepth {
		b.logger.Error().
			Str("event", event).
			Int("depth", depth).
			Msg("Nested notification limit reached, dropping event")
		return 0
	}
	ctx = context.WithValue(ctx, depthKey{event}, depth+1)

	b.mu.Lock()
	snapshot := b.subs[event]
	b.mu.Unlock()

	ev := Event{Name: event, Payload: payload}
	ran := 0
	var fired []*Subscription

	for _, s := range snapshot {
		if s.closed.Load() {
			continue
		}
		if s.once {
			if !s.fired.CompareAndSwap(false, true) {
				continue
			}
			fired = append(fired, s)
		}

		ran++
		if err := b.invoke(ctx, s, ev); err != nil {
			handlerFailures.WithLabelValues(event).Inc()
			b.logger.Error().
				Err(err).
				Str("event", event).
				Str("subscription", s.id).
				Msg("Event handler failed")
		}
	}

	for _, s := range fired {
		s.Close()
	}

	return ran
}

func (b *Bus) invoke(ctx context.Context, s *Subscription, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return s.handler(ctx, ev)
}

// Count returns the number of subscriptions for event, or for all events
// if event is empty.
func (b *Bus) Count(event string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if event != "" {
		return len(b.subs[event])
	}
	n := 0
	for _, list := range b.subs {
		n += len(list)
	}
	return n
}

// Close drops every subscription.
func (b *Bus) Close() {
	b.mu.Lock()
	all := b.subs
	b.subs = make(map[string][]*Subscription)
	b.mu.Unlock()

	for _, list := range all {
		for _, s := range list {
			s.closed.Store(true)
		}
	}
}
