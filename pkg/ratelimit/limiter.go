// Package ratelimit paces outbound webhook requests.
//
// Each webhook gets its own token bucket. A webhook that answers 429 or 503
// with a Retry-After header is blocked until the announced time; Wait sleeps
// through the block instead of sending a request that would be refused.
package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

var (
	rateLimitWaitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minicrm_rate_limit_waits_total",
		Help: "Total number of requests delayed by the outbound rate limiter",
	}, []string{"webhook"})

	rateLimitBlocksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minicrm_rate_limit_blocks_total",
		Help: "Total number of Retry-After blocks announced by a webhook",
	}, []string{"webhook"})
)

// MaxBlock caps the block a single Retry-After header can impose.
const MaxBlock = 2 * time.Minute

// State is the limiter state of one webhook.
type State struct {
	BlockedUntil time.Time `json:"blocked_until"`
	Tokens       float64   `json:"tokens"`
}

// IsBlocked reports whether the webhook is blocked at now.
func (s State) IsBlocked(now time.Time) bool {
	return now.Before(s.BlockedUntil)
}

type webhookLimiter struct {
	bucket       *rate.Limiter
	blockedUntil time.Time
}

// Limiter paces requests per webhook. The zero rate disables pacing, but
// Retry-After blocks are still honored. A nil *Limiter never waits.
type Limiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	webhooks map[string]*webhookLimiter
	now      func() time.Time
	logger   zerolog.Logger
}

// New creates a limiter allowing perSecond requests per webhook with the
// given burst. perSecond <= 0 disables pacing.
func New(perSecond float64, burst int, logger zerolog.Logger) *Limiter {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		limit:    limit,
		burst:    burst,
		webhooks: make(map[string]*webhookLimiter),
		now:      time.Now,
		logger:   logger.With().Str("component", "ratelimit").Logger(),
	}
}

func (l *Limiter) get(webhook string) *webhookLimiter {
	w, ok := l.webhooks[webhook]
	if !ok {
		w = &webhookLimiter{bucket: rate.NewLimiter(l.limit, l.burst)}
		l.webhooks[webhook] = w
	}
	return w
}

// Wait blocks until a request to webhook may be sent or ctx is done.
func (l *Limiter) Wait(ctx context.Context, webhook string) error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	w := l.get(webhook)
	blocked := w.blockedUntil.Sub(l.now())
	l.mu.Unlock()

	if blocked > 0 {
		rateLimitWaitsTotal.WithLabelValues(webhook).Inc()
		l.logger.Warn().
			Str("webhook", webhook).
			Dur("wait_duration", blocked).
			Msg("Webhook blocked by Retry-After, waiting")

		t := time.NewTimer(blocked)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}

	if w.bucket.Limit() == rate.Inf {
		return nil
	}

	r := w.bucket.Reserve()
	if !r.OK() {
		return w.bucket.Wait(ctx)
	}
	delay := r.Delay()
	if delay == 0 {
		return nil
	}

	rateLimitWaitsTotal.WithLabelValues(webhook).Inc()
	l.logger.Debug().Str("webhook", webhook).Dur("wait_duration", delay).Msg("Throttling request")

	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// UpdateFromResponse records a Retry-After announced with a 429 or 503
// status. Other statuses and missing or unparsable headers are ignored.
func (l *Limiter) UpdateFromResponse(webhook string, status int, headers http.Header) {
	if l == nil {
		return
	}
	if status != http.StatusTooManyRequests && status != http.StatusServiceUnavailable {
		return
	}

	now := l.now()
	wait, ok := parseRetryAfter(headers.Get("Retry-After"), now)
	if !ok || wait <= 0 {
		return
	}
	if wait > MaxBlock {
		wait = MaxBlock
	}

	l.mu.Lock()
	w := l.get(webhook)
	until := now.Add(wait)
	if until.After(w.blockedUntil) {
		w.blockedUntil = until
	}
	l.mu.Unlock()

	rateLimitBlocksTotal.WithLabelValues(webhook).Inc()
	l.logger.Warn().
		Str("webhook", webhook).
		Int("status", status).
		Time("blocked_until", until).
		Msg("Webhook announced Retry-After")
}

// State returns the limiter state of webhook.
func (l *Limiter) State(webhook string) State {
	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.get(webhook)
	return State{
		BlockedUntil: w.blockedUntil,
		Tokens:       w.bucket.TokensAt(l.now()),
	}
}

// parseRetryAfter accepts delay-seconds or an HTTP date.
func parseRetryAfter(v string, now time.Time) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(v); err == nil {
		return t.Sub(now), true
	}
	return 0, false
}
