// Package metrics exposes the Prometheus registry of the CRM client.
// All metrics are defined in their respective packages (client, cache,
// ratelimit, events) to maintain modularity and avoid circular dependencies.
//
// This package provides the scrape handler and the metric catalogue.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the CRM client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer paired with Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the metrics of Registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - minicrm_requests_total{webhook, status} (Counter): Attempts by webhook and HTTP status
//     (or timeout, network_error, cancelled)
//   - minicrm_request_duration_seconds{webhook} (Histogram): Attempt duration by webhook
//   - minicrm_errors_total{class} (Counter): Errors by class
//     (timeout, network, client, server, protocol, application)
//
// Retry Metrics (pkg/client):
//   - minicrm_retries_total{error_class} (Counter): Retry attempts by error class
//   - minicrm_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - minicrm_retry_exhausted_total{error_class} (Counter): Calls that exhausted their retries
//
// Cache Metrics (pkg/cache):
//   - minicrm_cache_hits_total{layer} (Counter): Cache hits by layer (memory, redis)
//   - minicrm_cache_misses_total{layer} (Counter): Cache misses by layer
//   - minicrm_cache_evictions_total{layer} (Counter): Expired entries removed by layer
//   - minicrm_cache_errors_total{operation} (Counter): Cache backend errors
//
// Rate Limit Metrics (pkg/ratelimit):
//   - minicrm_rate_limit_waits_total{webhook} (Counter): Requests delayed by pacing
//   - minicrm_rate_limit_blocks_total{webhook} (Counter): Retry-After blocks received
//
// Event Metrics (pkg/events):
//   - minicrm_event_handler_failures_total{event} (Counter): Handler errors and panics
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(minicrm_cache_hits_total[5m])) /
//   (sum(rate(minicrm_cache_hits_total[5m])) + sum(rate(minicrm_cache_misses_total[5m])))
//
//   # Request Error Rate by class
//   sum by (class) (rate(minicrm_errors_total[5m]))
//
//   # P95 Search Latency
//   histogram_quantile(0.95, rate(minicrm_request_duration_seconds_bucket{webhook="ENTERPRISE_API"}[5m]))
//
//   # Failing subscribers
//   increase(minicrm_event_handler_failures_total[1h]) > 0
