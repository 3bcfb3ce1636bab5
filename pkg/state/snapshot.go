package state

import (
	"context"

	"github.com/Sternrassler/minicrm-client/pkg/cache"
	"github.com/Sternrassler/minicrm-client/pkg/config"
)

// Snapshot is a diagnostic view of an AppState.
type Snapshot struct {
	CurrentState          NavState      `json:"current_state"`
	HistoryDepth          int           `json:"history_depth"`
	CanGoBack             bool          `json:"can_go_back"`
	HasSelectedEnterprise bool          `json:"has_selected_enterprise"`
	CurrentAction         config.Action `json:"current_action"`
	Status                Status        `json:"status"`
	SearchResultsCount    int           `json:"search_results_count"`
	PublicationsCount     int           `json:"publications_count"`
	HasQualification      bool          `json:"has_qualification"`
	CacheStats            cache.Stats   `json:"cache_stats"`
	ObserversCount        int           `json:"observers_count"`
	ActiveTimeoutsCount   int           `json:"active_timeouts_count"`
}

// Snapshot returns a diagnostic view of the state.
func (s *AppState) Snapshot(ctx context.Context) Snapshot {
	s.mu.Lock()
	snap := Snapshot{
		CurrentState:          s.current,
		HistoryDepth:          len(s.history),
		CanGoBack:             len(s.history) > 0,
		HasSelectedEnterprise: s.enterprise != nil,
		CurrentAction:         s.action,
		Status:                s.status,
		SearchResultsCount:    len(s.searchResults),
		PublicationsCount:     len(s.publications),
		HasQualification:      s.qualification != nil,
		ActiveTimeoutsCount:   len(s.timers),
	}
	s.mu.Unlock()

	snap.CacheStats = s.CacheStats(ctx)
	snap.ObserversCount = s.bus.Count("")
	return snap
}
