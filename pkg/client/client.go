// Package client provides the webhook call primitive of the CRM client:
// JSON POST with a per-attempt timeout, linear retry of transient failures
// and validation of the response envelope.
//
// Caching is left to the callers.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/Sternrassler/minicrm-client/pkg/config"
	"github.com/Sternrassler/minicrm-client/pkg/logging"
	"github.com/Sternrassler/minicrm-client/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for webhook calls.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minicrm_requests_total",
		Help: "Total webhook requests by webhook and status",
	}, []string{"webhook", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "minicrm_request_duration_seconds",
		Help:    "Webhook request duration in seconds by webhook",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 15},
	}, []string{"webhook"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minicrm_errors_total",
		Help: "Total webhook errors by class",
	}, []string{"class"})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minicrm_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "minicrm_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.5, 1, 2, 3, 5, 10},
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minicrm_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

const (
	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 10 << 20

	// maxErrorBodyBytes caps the body text kept in an HTTPError.
	maxErrorBodyBytes = 64 << 10
)

// Options configures a Client. Zero values fall back to the registry.
type Options struct {
	// HTTPClient (default: a client without global timeout)
	HTTPClient *http.Client

	// Limiter paces requests per webhook (optional)
	Limiter *ratelimit.Limiter

	// Sleep waits between attempts (default: timer honoring ctx)
	Sleep Sleeper

	// Logger (default: global logger)
	Logger *zerolog.Logger

	// Timeout overrides the per-attempt timeout of every webhook
	Timeout time.Duration

	// MaxRetries overrides the registry retries when set
	MaxRetries *int

	// RetryDelay overrides the base retry delay
	RetryDelay time.Duration
}

// CallOptions overrides the client defaults for one call.
type CallOptions struct {
	// Timeout per attempt
	Timeout time.Duration

	// MaxRetries after the first attempt; nil keeps the default
	MaxRetries *int
}

// Retries returns a pointer to n for CallOptions.MaxRetries.
func Retries(n int) *int {
	return &n
}

// Client calls the CRM webhooks.
type Client struct {
	registry   *config.Registry
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	sleep      Sleeper
	logger     zerolog.Logger

	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
}

// New creates a client resolving webhooks through registry.
func New(registry *config.Registry, opts Options) (*Client, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry is required")
	}

	logger := logging.Component(opts.Logger, "crm-client")

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	maxRetries := registry.MaxRetries()
	if opts.MaxRetries != nil {
		maxRetries = *opts.MaxRetries
	}
	if maxRetries < 0 {
		return nil, fmt.Errorf("max retries must be >= 0 (got %d)", maxRetries)
	}

	retryDelay := registry.Timeouts().RetryDelay
	if opts.RetryDelay > 0 {
		retryDelay = opts.RetryDelay
	}

	return &Client{
		registry:   registry,
		httpClient: httpClient,
		limiter:    opts.Limiter,
		sleep:      sleep,
		logger:     logger,
		timeout:    opts.Timeout,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
	}, nil
}

// Stats describes the client configuration.
type Stats struct {
	Timeout       time.Duration `json:"timeout"`
	SearchTimeout time.Duration `json:"search_timeout"`
	MaxRetries    int           `json:"retries"`
	RetryDelay    time.Duration `json:"retry_delay"`
}

// Stats returns the effective defaults.
func (c *Client) Stats() Stats {
	return Stats{
		Timeout:       c.timeoutFor(config.WebhookGateway, 0),
		SearchTimeout: c.timeoutFor(config.WebhookEnterprise, 0),
		MaxRetries:    c.maxRetries,
		RetryDelay:    c.retryDelay,
	}
}

func (c *Client) timeoutFor(webhook string, override time.Duration) time.Duration {
	switch {
	case override > 0:
		return override
	case c.timeout > 0:
		return c.timeout
	default:
		return c.registry.RequestTimeout(webhook)
	}
}

// Call POSTs payload as JSON to webhook and returns the validated response.
//
// Each attempt has its own timeout. Timeouts, transport failures and 5xx
// responses are retried with a linear backoff; other failures are returned
// at once. After the last attempt the last error is returned unchanged:
// *TimeoutError, *NetworkError, *HTTPError, *ProtocolError or
// *ApplicationError. Unknown webhooks fail with *config.ConfigError.
func (c *Client) Call(ctx context.Context, webhook string, payload any, opts CallOptions) (*Response, error) {
	url, err := c.registry.WebhookURL(webhook)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	timeout := c.timeoutFor(webhook, opts.Timeout)
	maxRetries := c.maxRetries
	if opts.MaxRetries != nil && *opts.MaxRetries >= 0 {
		maxRetries = *opts.MaxRetries
	}

	requestID := ""
	if env, ok := payload.(Envelope); ok {
		requestID = env.Meta.RequestID
	}

	var resp *Response
	err = c.retryLinear(ctx, webhook, maxRetries, c.retryDelay, func(ctx context.Context, attempt int) error {
		if err := c.limiter.Wait(ctx, webhook); err != nil {
			return err
		}

		c.logger.Debug().
			Str("webhook", webhook).
			Str("request_id", requestID).
			Int("attempt", attempt).
			Msg("Calling webhook")

		r, err := c.attempt(ctx, webhook, url, body, requestID, timeout)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info().Str("webhook", webhook).Str("request_id", requestID).Msg("Webhook call succeeded")
	return resp, nil
}

// attempt performs one POST under its own timeout.
func (c *Client) attempt(ctx context.Context, webhook, url string, body []byte, requestID string, timeout time.Duration) (*Response, error) {
	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues(webhook).Observe(time.Since(start).Seconds())
	}()

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError(ctx, webhook, timeout, err)
	}
	defer httpResp.Body.Close()

	c.limiter.UpdateFromResponse(webhook, httpResp.StatusCode, httpResp.Header)

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, c.transportError(ctx, webhook, timeout, err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		if len(data) > maxErrorBodyBytes {
			data = data[:maxErrorBodyBytes]
		}
		herr := &HTTPError{Webhook: webhook, Status: httpResp.StatusCode, Body: string(data)}
		c.record(webhook, strconv.Itoa(httpResp.StatusCode), herr)
		c.logger.Warn().
			Str("webhook", webhook).
			Int("status", httpResp.StatusCode).
			Str("error_class", string(herr.Class())).
			Msg("Webhook returned error status")
		return nil, herr
	}

	resp, err := parseResponse(webhook, data)
	if err != nil {
		c.record(webhook, strconv.Itoa(httpResp.StatusCode), err)
		c.logger.Warn().Err(err).Str("webhook", webhook).Str("error_class", string(ClassOf(err))).Msg("Webhook response rejected")
		return nil, err
	}

	c.record(webhook, strconv.Itoa(httpResp.StatusCode), nil)
	return resp, nil
}

// transportError classifies a failure to get or read a response. Parent
// cancellation is returned as ctx.Err() so that the retry loop stops.
func (c *Client) transportError(ctx context.Context, webhook string, timeout time.Duration, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		c.record(webhook, "cancelled", nil)
		return ctxErr
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		terr := &TimeoutError{Webhook: webhook, Timeout: timeout}
		c.record(webhook, "timeout", terr)
		c.logger.Warn().Str("webhook", webhook).Dur("timeout", timeout).Msg("Webhook timed out")
		return terr
	}

	nerr := &NetworkError{Webhook: webhook, Err: err}
	c.record(webhook, "network_error", nerr)
	c.logger.Warn().Err(err).Str("webhook", webhook).Msg("Webhook request failed")
	return nerr
}

func (c *Client) record(webhook, status string, err error) {
	requestsTotal.WithLabelValues(webhook, status).Inc()
	if err != nil {
		errorsTotal.WithLabelValues(string(ClassOf(err))).Inc()
	}
}

// Probe sends a HEAD request to webhook and returns the response time.
// Any HTTP answer counts as reachable.
func (c *Client) Probe(ctx context.Context, webhook string, timeout time.Duration) (time.Duration, error) {
	url, err := c.registry.WebhookURL(webhook)
	if err != nil {
		return 0, err
	}
	if timeout <= 0 {
		timeout = c.timeoutFor(webhook, 0)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return 0, &TimeoutError{Webhook: webhook, Timeout: timeout}
		}
		return 0, &NetworkError{Webhook: webhook, Err: err}
	}
	resp.Body.Close()

	return time.Since(start), nil
}

// Registry returns the registry the client resolves webhooks with.
func (c *Client) Registry() *config.Registry {
	return c.registry
}
