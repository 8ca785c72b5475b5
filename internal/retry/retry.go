package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultDelay = 100 * time.Millisecond
	// MaxDelay caps the wait between two attempts.
	MaxDelay = 30 * time.Second
)

// Permanent marks err as not worth retrying; Do returns it unwrapped.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do runs fn up to maxRetries+1 times with exponential backoff starting at
// baseDelay. A Permanent error, a context error from fn, or a done ctx stops
// it early.
func Do(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	b := backoff.WithContext(backoff.WithMaxRetries(policy(baseDelay), uint64(maxRetries)), ctx)
	return backoff.Retry(func() error {
		err := fn(ctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
}

// policy doubles the delay from base up to MaxDelay, without jitter and
// without an overall time limit.
func policy(base time.Duration) *backoff.ExponentialBackOff {
	if base <= 0 {
		base = defaultDelay
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = base
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = MaxDelay
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}
