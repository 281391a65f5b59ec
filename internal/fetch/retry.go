package fetch

import (
	"context"
	"errors"
	"time"
)

var errEmptyBody = errors.New("empty response body")

// Sleeper waits out a backoff gap; tests substitute one that records the
// requested durations instead of sleeping.
type Sleeper func(ctx context.Context, d time.Duration) error

// Policy bounds the retry loop around a single part transfer.
type Policy struct {
	Attempts int
	Backoff  func(attempt int) time.Duration // gap after failed attempt k (1-based)
	Sleep    Sleeper
}

// DefaultPolicy is 3 attempts with linear backoff: 2s after the first
// failure, 4s after the second.
func DefaultPolicy() Policy {
	return Policy{
		Attempts: 3,
		Backoff:  LinearBackoff(2 * time.Second),
		Sleep:    sleepContext,
	}
}

func LinearBackoff(step time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * step
	}
}

// Do runs fn up to Attempts times. Only retryable errors re-enter the loop;
// anything else, including context cancellation, surfaces immediately. When
// the budget is exhausted the last observed error is returned.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	var lastErr error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) {
			return lastErr
		}
		if attempt < p.Attempts {
			if err := sleep(ctx, p.Backoff(attempt)); err != nil {
				return err
			}
		}
	}
	return lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
