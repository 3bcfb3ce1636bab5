package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Sternrassler/minicrm-client/pkg/cache"
	"github.com/Sternrassler/minicrm-client/pkg/client"
	"github.com/Sternrassler/minicrm-client/pkg/config"
	"github.com/Sternrassler/minicrm-client/pkg/crm"
	"github.com/Sternrassler/minicrm-client/pkg/host"
	"github.com/Sternrassler/minicrm-client/pkg/logging"
	"github.com/Sternrassler/minicrm-client/pkg/metrics"
	"github.com/Sternrassler/minicrm-client/pkg/ratelimit"
	"github.com/Sternrassler/minicrm-client/pkg/state"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// app wires one CRM session behind the HTTP facade.
type app struct {
	state  *state.AppState
	svc    *crm.Service
	redis  *redis.Client
	logger zerolog.Logger
}

// newApp builds the session. A Redis cache is used when MINICRM_REDIS_URL
// is set, the in-memory store otherwise.
func newApp(ctx context.Context, settings config.Settings, logger zerolog.Logger) (*app, error) {
	registry, err := config.New(settings)
	if err != nil {
		return nil, fmt.Errorf("build registry: %w", err)
	}

	a := &app{logger: logging.Component(&logger, "server")}

	var store cache.Store = cache.NewMemory()
	if settings.RedisURL != "" {
		opts, err := redis.ParseURL(settings.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		a.redis = redis.NewClient(opts)
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.redis.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		store = cache.NewRedis(a.redis, "minicrm")
		a.logger.Info().Str("addr", opts.Addr).Msg("Connected to Redis")
	}

	a.state = state.New(state.Options{Cache: store, Registry: registry, Logger: &logger})

	limiter := ratelimit.New(settings.RateLimit, settings.RateBurst, logging.Component(&logger, "ratelimit"))

	c, err := client.New(registry, client.Options{Limiter: limiter, Logger: &logger})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("build client: %w", err)
	}

	a.svc, err = crm.New(c, a.state, registry, crm.Options{Logger: &logger})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("build service: %w", err)
	}

	host.Attach(ctx, host.NewFallback(a.state, &logger), a.state)

	return a, nil
}

func (a *app) close() {
	if a.state != nil {
		if err := a.state.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("Closing state failed")
		}
	}
	if a.redis != nil {
		a.redis.Close()
	}
}

func (a *app) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("GET /health/webhooks", a.webhooksHandler)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/search", a.searchHandler)
	mux.HandleFunc("GET /api/stats", a.statsHandler)
	mux.HandleFunc("GET /api/state", a.stateHandler)
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func (a *app) webhooksHandler(w http.ResponseWriter, r *http.Request) {
	results := a.svc.HealthCheck(r.Context())

	status := http.StatusOK
	for _, res := range results {
		if !res.Healthy() {
			status = http.StatusServiceUnavailable
			break
		}
	}
	a.writeJSON(w, status, results)
}

type searchResponse struct {
	Query   string       `json:"query"`
	Count   int          `json:"count"`
	Results any          `json:"results"`
	Status  state.Status `json:"status"`
}

func (a *app) searchHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	force, _ := strconv.ParseBool(q.Get("force"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	results := a.svc.SearchEnterprises(r.Context(), q.Get("q"), crm.SearchOptions{
		Limit:        limit,
		ForceRefresh: force,
	})

	a.writeJSON(w, http.StatusOK, searchResponse{
		Query:   q.Get("q"),
		Count:   len(results),
		Results: results,
		Status:  a.state.Status(),
	})
}

func (a *app) statsHandler(w http.ResponseWriter, r *http.Request) {
	data, err := a.svc.Stats(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, data)
}

func (a *app) stateHandler(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]any{
		"state": a.state.Snapshot(r.Context()),
		"api":   a.svc.APIStats(r.Context()),
	})
}

// writeError maps call failures to gateway statuses.
func (a *app) writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	var terr *client.TimeoutError
	if errors.As(err, &terr) {
		status = http.StatusGatewayTimeout
	}
	a.writeJSON(w, status, map[string]any{
		"error":       err.Error(),
		"error_class": client.ClassOf(err),
	})
}

func (a *app) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to write response")
	}
}
