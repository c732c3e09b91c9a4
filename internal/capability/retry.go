package capability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/templui/storyloom/internal/metrics"
)

// RetryPolicy retries transient failures with exponential backoff.
// The delay after failed attempt n is min(BaseDelay*2^(n-1), MaxDelay) plus up to Jitter.
type RetryPolicy struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	Jitter         time.Duration
	AttemptTimeout time.Duration

	// Sleep waits between attempts. Nil uses a timer that stops early when ctx is done.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NoRetry runs the operation once with the given per-attempt timeout.
func NoRetry(timeout time.Duration) RetryPolicy {
	return RetryPolicy{MaxAttempts: 1, AttemptTimeout: timeout}
}

// Backoff returns the delay after failed attempt n (1-based), without jitter.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 || p.BaseDelay <= 0 {
		return 0
	}
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// Do runs op until it succeeds, fails permanently, or attempts run out.
// It returns the number of attempts made and the last error.
func (p RetryPolicy) Do(ctx context.Context, name Name, op func(ctx context.Context) error) (int, error) {
	maxAttempts := max(p.MaxAttempts, 1)

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err == nil {
				err = ctxErr
			}
			return attempt - 1, err
		}

		err = p.attempt(ctx, op)
		if err == nil {
			return attempt, nil
		}

		if !IsTransient(err) || attempt == maxAttempts {
			return attempt, err
		}

		delay := p.Backoff(attempt)
		if p.Jitter > 0 {
			delay += rand.N(p.Jitter)
		}

		slog.Warn("capability attempt failed, retrying",
			"capability", name,
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"delay", delay,
			"error", err,
		)
		metrics.CapabilityRetries.WithLabelValues(string(name)).Inc()

		sleepErr := p.sleep(ctx, delay)
		if sleepErr != nil {
			return attempt, err
		}
	}

	return maxAttempts, err
}

func (p RetryPolicy) attempt(ctx context.Context, op func(ctx context.Context) error) error {
	if p.AttemptTimeout <= 0 {
		return op(ctx)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, p.AttemptTimeout)
	defer cancel()

	err := op(attemptCtx)
	if err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("timed out after %s: %w", p.AttemptTimeout, context.DeadlineExceeded)
	}
	return err
}

func (p RetryPolicy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
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
