package crm

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/Sternrassler/minicrm-client/pkg/config"
)

// searchTimer is the session timer debouncing search input.
const searchTimer = "search"

// Searcher turns keystrokes into debounced searches and publishes the
// results to the session store.
//
// Every dispatched search takes a sequence number. Results are published
// only if no later search was dispatched meanwhile, so a slow response to
// an old query never overwrites a newer one.
type Searcher struct {
	svc *Service
	cfg config.SearchConfig

	seq atomic.Uint64

	// publish serializes the sequence check with the publication
	publish sync.Mutex

	mu        sync.Mutex
	lastQuery string
}

// NewSearcher creates a searcher publishing through svc's session store.
func NewSearcher(svc *Service) *Searcher {
	return &Searcher{
		svc: svc,
		cfg: svc.registry.SearchConfig(),
	}
}

// Input handles the current content of the search field. force is set
// when the user confirms the query (Enter): duplicate suppression and the
// minimum length check are skipped.
//
// Queries are dispatched after the configured quiet period, each new input
// replacing the pending one. ctx is used by the dispatched search.
func (s *Searcher) Input(ctx context.Context, query string, force bool) {
	query = strings.TrimSpace(query)

	if !force && utf8.RuneCountInString(query) < s.cfg.MinLength {
		s.clear(ctx)
		return
	}

	s.mu.Lock()
	duplicate := query == s.lastQuery
	s.mu.Unlock()
	if duplicate && !force {
		return
	}

	s.svc.state.SetTimeout(searchTimer, func() {
		s.dispatch(ctx, query)
	}, s.cfg.Delay)
}

// Cancel drops the pending search and invalidates in-flight ones.
func (s *Searcher) Cancel() {
	s.svc.state.ClearTimeout(searchTimer)
	s.seq.Add(1)
}

// clear cancels pending work and empties the published results.
func (s *Searcher) clear(ctx context.Context) {
	s.Cancel()

	s.mu.Lock()
	s.lastQuery = ""
	s.mu.Unlock()

	s.svc.state.ClearSearchResults(ctx)
}

// dispatch runs one search and publishes its results unless a later
// search was dispatched meanwhile.
func (s *Searcher) dispatch(ctx context.Context, query string) {
	if utf8.RuneCountInString(query) < s.cfg.MinLength {
		s.clear(ctx)
		return
	}

	seq := s.seq.Add(1)

	s.mu.Lock()
	s.lastQuery = query
	s.mu.Unlock()

	results := s.svc.SearchEnterprises(ctx, query, SearchOptions{Limit: s.cfg.MaxResults})

	s.publish.Lock()
	defer s.publish.Unlock()

	if latest := s.seq.Load(); latest != seq {
		s.svc.logger.Debug().
			Str("query", query).
			Uint64("seq", seq).
			Uint64("latest", latest).
			Msg("Discarding stale search results")
		return
	}

	s.svc.state.SetSearchResults(ctx, results, query)
}
