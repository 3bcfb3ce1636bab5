package crm

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Sternrassler/minicrm-client/pkg/client"
	"github.com/Sternrassler/minicrm-client/pkg/config"
	"github.com/Sternrassler/minicrm-client/pkg/model"
)

// SearchOptions tunes one enterprise search.
type SearchOptions struct {
	// Limit caps the number of results (default: registry max results)
	Limit int

	// ForceRefresh bypasses the cache
	ForceRefresh bool
}

// SearchEnterprises returns the enterprises matching query.
//
// Queries shorter than the configured minimum length return no results
// without calling the backend. Backend failures are logged, reported
// through the session status and yield no results. The returned slice is
// never nil.
func (s *Service) SearchEnterprises(ctx context.Context, query string, opts SearchOptions) []model.Enterprise {
	cfg := s.registry.SearchConfig()
	query = strings.TrimSpace(query)

	if utf8.RuneCountInString(query) < cfg.MinLength {
		return []model.Enterprise{}
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = cfg.MaxResults
	}

	key := cacheKey("search", map[string]any{"query": query, "limit": limit})

	if !opts.ForceRefresh {
		var cached []model.Enterprise
		if s.state.GetCacheItem(ctx, key, &cached) {
			s.logger.Debug().Str("query", query).Int("count", len(cached)).Msg("Search served from cache")
			return cached
		}
	}

	s.state.SetLoading(ctx, fmt.Sprintf("Recherche %q...", query))

	v, err, shared := s.fetches.Do(key, func() (any, error) {
		resp, err := s.client.Call(ctx, config.WebhookEnterprise, s.envelope("search", map[string]any{
			"query": query,
			"limit": limit,
		}), client.CallOptions{})
		if err != nil {
			return nil, err
		}

		results, ok := normalizeEnterprises(resp.Data)
		if !ok {
			s.logger.Warn().Str("query", query).Msg("Search response carries no result list")
		}
		if len(results) > limit {
			results = results[:limit]
		}

		s.store(ctx, key, results, cfg.CacheTTL)
		return results, nil
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("query", query).Str("error_class", string(client.ClassOf(err))).Msg("Search failed")
		s.state.SetError(ctx, fmt.Sprintf("Erreur recherche: %s", err.Error()))
		return []model.Enterprise{}
	}

	results := v.([]model.Enterprise)
	if shared {
		results = append(make([]model.Enterprise, 0, len(results)), results...)
	}

	s.state.SetSuccess(ctx, fmt.Sprintf("%d entreprise(s) trouvée(s)", len(results)))
	return results
}
