// Package retry runs an operation until it succeeds, fails terminally or
// exhausts its attempts, sleeping with capped exponential backoff between
// attempts.
package retry

import (
	"context"
	"time"
)

const (
	BaseDelay = 1 * time.Second
	MaxDelay  = 10 * time.Second
)

// Backoff returns the delay before retry number attempt (zero based):
// min(BaseDelay * 2^attempt, MaxDelay).
func Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 4 {
		return MaxDelay
	}
	d := BaseDelay << attempt
	if d > MaxDelay {
		return MaxDelay
	}
	return d
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
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

// Policy configures Do. Zero fields fall back to Backoff and Sleep.
type Policy struct {
	MaxRetries int
	Backoff    func(attempt int) time.Duration
	Sleep      func(ctx context.Context, d time.Duration) error
	// OnRetry is called before each sleep with the failed attempt number
	// (one based), the chosen delay and the error.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// Do calls op up to MaxRetries+1 times. An error for which retryable
// returns false is returned immediately; otherwise the last error is
// returned once attempts are exhausted.
func Do[T any](ctx context.Context, p Policy, retryable func(error) bool, op func(ctx context.Context) (T, error)) (T, error) {
	backoff := p.Backoff
	if backoff == nil {
		backoff = Backoff
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	maxRetries := p.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	var zero T
	for attempt := 0; ; attempt++ {
		out, err := op(ctx)
		if err == nil {
			return out, nil
		}
		if attempt >= maxRetries || retryable == nil || !retryable(err) {
			return zero, err
		}
		delay := backoff(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, delay, err)
		}
		if serr := sleep(ctx, delay); serr != nil {
			return zero, err
		}
	}
}
