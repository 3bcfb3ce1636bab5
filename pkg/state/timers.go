package state

import (
	"sort"
	"time"
)

type timer struct {
	t *time.Timer
}

// SetTimeout runs fn after delay under name, cancelling any timer already
// registered under that name. fn runs on its own goroutine. It returns false
// if the state is closed.
func (s *AppState) SetTimeout(name string, fn func(), delay time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	if prev, ok := s.timers[name]; ok {
		prev.t.Stop()
	}

	entry := &timer{}
	entry.t = time.AfterFunc(delay, func() {
		s.mu.Lock()
		// a replaced timer must not remove its successor
		if s.timers[name] != entry {
			s.mu.Unlock()
			return
		}
		delete(s.timers, name)
		s.mu.Unlock()

		s.logger.Debug().Str("timer", name).Msg("Timer fired")
		fn()
	})
	s.timers[name] = entry

	return true
}

// ClearTimeout cancels the timer registered under name.
// Returns true if a pending timer was cancelled.
func (s *AppState) ClearTimeout(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.timers[name]
	if !ok {
		return false
	}
	delete(s.timers, name)
	return entry.t.Stop()
}

// ClearAllTimeouts cancels every pending timer.
func (s *AppState) ClearAllTimeouts() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, entry := range s.timers {
		entry.t.Stop()
		delete(s.timers, name)
	}
}

// ActiveTimeouts returns the names of the pending timers, sorted.
func (s *AppState) ActiveTimeouts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.timers))
	for name := range s.timers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
