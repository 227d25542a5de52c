// Package retry provides backoff loops for polling conditions owned by
// another goroutine or process.
package retry

import (
	"context"
	"errors"
	"time"
)

// ErrRetry signals Blocking to call the function again after backing off.
var ErrRetry = errors.New("retry")

// Backoff blocks until the next attempt is due. It returns ctx.Err() when
// ctx is done first.
type Backoff func(context.Context) error

// Static waits the same interval before every attempt.
func Static(interval time.Duration) Backoff {
	return Exponential(interval, 1, interval)
}

// Exponential waits initial, then multiplies the interval by r after each
// attempt, never exceeding ceiling.
func Exponential(initial time.Duration, r float64, ceiling time.Duration) Backoff {
	interval := initial
	return func(ctx context.Context) error {
		timer := time.NewTimer(interval)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			next := time.Duration(float64(interval) * r)
			interval = min(next, ceiling)
			return nil
		}
	}
}

// Blocking calls f until it returns anything other than ErrRetry, backing
// off before each call.
func Blocking[T any](ctx context.Context, b Backoff, f func() (T, error)) (T, error) {
	var last T
	for {
		if err := b(ctx); err != nil {
			return last, err
		}

		var err error
		last, err = f()
		if !errors.Is(err, ErrRetry) {
			return last, err
		}
	}
}
