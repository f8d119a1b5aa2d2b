package retry

import (
	"context"
	"time"
)

// Policy defines how many times an operation is retried and the backoff between attempts.
// The wait before retry n is n*Backoff.
type Policy struct {
	MaxRetries int
	Backoff    time.Duration
}

// DefaultPolicy returns a default retry policy
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 3,
		Backoff:    500 * time.Millisecond,
	}
}

// Do calls fn until it succeeds, the retries are exhausted or ctx is done.
// It returns the last error of fn, or the context error if ctx ended first.
func Do(ctx context.Context, policy Policy, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == policy.MaxRetries {
			break
		}

		timer := time.NewTimer(time.Duration(attempt+1) * policy.Backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}
