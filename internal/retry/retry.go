// Package retry provides a reusable retry policy with exponential backoff
// and jitter, shared by every outbound call site.
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Policy configures retry behavior for an outbound call.
type Policy struct {
	MaxAttempts int           // Total attempts, including the first
	BaseDelay   time.Duration // Delay before the second attempt
	Multiplier  float64       // Backoff growth factor per attempt
	Jitter      float64       // Fraction of the delay randomized (0.0-1.0)
}

// DefaultPolicy returns the standard policy for search and scrape calls:
// two attempts with a one second base delay and 25% jitter.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 2,
		BaseDelay:   time.Second,
		Multiplier:  2.0,
		Jitter:      0.25,
	}
}

// Do runs fn until it succeeds, the policy is exhausted, or ctx is done.
// The last error is returned when all attempts fail.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, p.delayFor(attempt)); err != nil {
				return err
			}
		}

		if err := fn(ctx); err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		return nil
	}

	return fmt.Errorf("all %d attempts failed: %w", attempts, lastErr)
}

// delayFor computes the backoff delay before the given attempt (1-based for
// retries), applying exponential growth and jitter.
func (p Policy) delayFor(attempt int) time.Duration {
	delay := float64(p.BaseDelay)
	multiplier := p.Multiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}
	for i := 1; i < attempt; i++ {
		delay *= multiplier
	}

	if p.Jitter > 0 {
		// Spread delays so concurrent retries don't synchronize.
		delay += delay * p.Jitter * (rand.Float64()*2 - 1)
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
