// Package retry computes backoff delays and retries transient failures.
package retry

import (
	"context"
	"time"
)

// Backoff selects how delays grow between attempts.
type Backoff string

const (
	BackoffFixed       Backoff = "fixed"
	BackoffLinear      Backoff = "linear"
	BackoffExponential Backoff = "exponential"
)

// Policy is an immutable retry schedule.
type Policy struct {
	Backoff    Backoff
	Initial    time.Duration // first delay
	Max        time.Duration // cap for growth
	MaxRetries int           // attempts after the first failure
}

// DefaultPolicy retries twice with exponential backoff from 1s, capped at 30s.
func DefaultPolicy() Policy {
	return Policy{Backoff: BackoffExponential, Initial: time.Second, Max: 30 * time.Second, MaxRetries: 2}
}

// NewPolicy overlays the given fields on DefaultPolicy. Zero durations, an
// unknown backoff and a negative maxRetries keep the default.
func NewPolicy(backoff Backoff, initial, maxDelay time.Duration, maxRetries int) Policy {
	p := DefaultPolicy()
	switch backoff {
	case BackoffFixed, BackoffLinear, BackoffExponential:
		p.Backoff = backoff
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDelay > 0 {
		p.Max = maxDelay
	}
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	if p.Initial > p.Max {
		p.Initial = p.Max
	}
	return p
}

// Delay returns the wait before retry n (1-based).
func (p Policy) Delay(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	var d time.Duration
	switch p.Backoff {
	case BackoffFixed:
		return p.Initial
	case BackoffExponential:
		if n > 32 {
			return p.Max
		}
		d = p.Initial << (n - 1)
	default:
		d = time.Duration(n) * p.Initial
	}
	if d > p.Max || d <= 0 {
		return p.Max
	}
	return d
}

// Do calls fn until it succeeds, returns an error retryable rejects, or the
// retries are used up. onRetry, if set, runs before each wait. The last error
// is returned; a canceled ctx ends the wait with ctx.Err().
func (p Policy) Do(ctx context.Context, retryable func(error) bool, onRetry func(n int, delay time.Duration, err error), fn func(context.Context) error) error {
	err := fn(ctx)
	for n := 1; err != nil && n <= p.MaxRetries && retryable(err); n++ {
		delay := p.Delay(n)
		if onRetry != nil {
			onRetry(n, delay, err)
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		err = fn(ctx)
	}
	return err
}
