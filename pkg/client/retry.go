package client

import (
	"context"
	"time"
)

// Sleeper waits d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// sleepContext is the default Sleeper.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// linearBackoff returns the wait after the given failed attempt (1-based).
func linearBackoff(base time.Duration, attempt int) time.Duration {
	return base * time.Duration(attempt)
}

// retryLinear runs fn up to maxRetries+1 times. Only errors accepted by
// IsRetryable are retried, waiting base*attempt between attempts. The last
// error is returned unchanged. Cancellation of ctx stops the loop and
// returns ctx.Err().
func (c *Client) retryLinear(ctx context.Context, webhook string, maxRetries int, base time.Duration, fn func(ctx context.Context, attempt int) error) error {
	attempts := maxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(ctx, attempt)
		if err == nil {
			if attempt > 1 {
				c.logger.Info().
					Str("webhook", webhook).
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return nil
		}
		lastErr = err

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		class := ClassOf(err)
		if !IsRetryable(err) {
			return err
		}
		if attempt >= attempts {
			break
		}

		backoff := linearBackoff(base, attempt)
		retriesTotal.WithLabelValues(string(class)).Inc()
		retryBackoffSeconds.WithLabelValues(string(class)).Observe(backoff.Seconds())

		c.logger.Warn().
			Err(err).
			Str("webhook", webhook).
			Str("error_class", string(class)).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Msg("Retrying request after backoff")

		if err := c.sleep(ctx, backoff); err != nil {
			c.logger.Warn().
				Str("webhook", webhook).
				Int("attempt", attempt).
				Msg("Context cancelled during retry backoff")
			return err
		}
	}

	class := ClassOf(lastErr)
	retryExhaustedTotal.WithLabelValues(string(class)).Inc()
	c.logger.Error().
		Err(lastErr).
		Str("webhook", webhook).
		Str("error_class", string(class)).
		Int("max_attempts", attempts).
		Msg("Retry attempts exhausted")

	return lastErr
}
