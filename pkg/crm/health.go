package crm

import (
	"context"
	"sync"
	"time"

	"github.com/Sternrassler/minicrm-client/pkg/client"
	"github.com/Sternrassler/minicrm-client/pkg/config"
	"golang.org/x/sync/errgroup"
)

// healthParallelism bounds concurrent probes.
const healthParallelism = 4

// connectionTestTimeout bounds each attempt of TestConnection.
const connectionTestTimeout = 5 * time.Second

// HealthResult is the probe outcome of one webhook.
type HealthResult struct {
	Status       string        `json:"status"`
	ResponseTime time.Duration `json:"response_time,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// Healthy reports whether the probe succeeded.
func (h HealthResult) Healthy() bool {
	return h.Status == "ok"
}

// HealthCheck probes every configured webhook with a HEAD request.
// Probes never fail the check; failures are reported per webhook.
func (s *Service) HealthCheck(ctx context.Context) map[string]HealthResult {
	names := s.registry.WebhookNames()
	results := make(map[string]HealthResult, len(names))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(healthParallelism)

	for _, name := range names {
		g.Go(func() error {
			res := HealthResult{Status: "ok"}
			d, err := s.client.Probe(gctx, name, 0)
			if err != nil {
				res = HealthResult{Status: "error", Error: err.Error()}
				s.logger.Warn().Err(err).Str("webhook", name).Msg("Webhook probe failed")
			} else {
				res.ResponseTime = d
			}

			mu.Lock()
			results[name] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// TestConnection sends a test action to the search webhook with a single
// retry and a short timeout.
func (s *Service) TestConnection(ctx context.Context) bool {
	_, err := s.client.Call(ctx, config.WebhookEnterprise, s.envelope("test", map[string]any{
		"timestamp": s.now().UTC(),
	}), client.CallOptions{
		Timeout:    connectionTestTimeout,
		MaxRetries: client.Retries(1),
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Connection test failed")
		return false
	}

	s.logger.Info().Msg("Connection test succeeded")
	return true
}
