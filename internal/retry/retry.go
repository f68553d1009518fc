// Package retry applies one backoff policy at the network-request boundary.
package retry

import (
	"context"
	"errors"
	"time"

	"job-collector/internal/pace"
)

// Policy describes how often and how patiently an operation is retried.
type Policy struct {
	MaxAttempts int
	// Backoff is indexed by attempt; the last entry repeats.
	Backoff []time.Duration
	// Retryable decides whether an error is worth another attempt.
	// A nil Retryable retries every error.
	Retryable func(error) bool
	// Extended selects errors that wait ExtendedBackoff instead of the
	// normal schedule (rate limiting).
	Extended        func(error) bool
	ExtendedBackoff time.Duration
	// Sleep defaults to pace.Sleep.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnRetry is called before each wait.
	OnRetry func(attempt int, wait time.Duration, err error)
}

// Once never retries.
var Once = Policy{MaxAttempts: 1}

// Delay returns the wait before attempt+1 after err.
func (p Policy) Delay(attempt int, err error) time.Duration {
	if p.Extended != nil && p.Extended(err) && p.ExtendedBackoff > 0 {
		return p.ExtendedBackoff
	}
	if len(p.Backoff) == 0 {
		return 0
	}
	if attempt-1 < len(p.Backoff) {
		return p.Backoff[attempt-1]
	}
	return p.Backoff[len(p.Backoff)-1]
}

// Do runs op until it succeeds, returns a non-retryable error, or the
// attempts are exhausted. The last error is returned.
func (p Policy) Do(ctx context.Context, op func(attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = pace.Sleep
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err == nil {
				err = ctxErr
			}
			return err
		}

		err = op(attempt)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		wait := p.Delay(attempt, err)
		if p.OnRetry != nil {
			p.OnRetry(attempt, wait, err)
		}
		if sleepErr := sleep(ctx, wait); sleepErr != nil {
			return err
		}
	}
	return err
}
