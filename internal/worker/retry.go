package worker

import (
	"context"
	"math"
	"time"
)

// RetryPolicy defines exponential backoff parameters. MaxRetries counts
// retries after the first attempt.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// NextDelay returns the wait after the given failed attempt (1-based).
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	initial := r.InitialDelay
	if initial <= 0 {
		initial = time.Second
	}
	factor := r.BackoffFactor
	if factor <= 0 {
		factor = 2
	}

	d := time.Duration(float64(initial) * math.Pow(factor, float64(attempt-1)))
	if r.MaxDelay > 0 && d > r.MaxDelay {
		d = r.MaxDelay
	}
	if d <= 0 {
		d = initial
	}
	return d
}

// Do calls fn until it succeeds, the retries are spent or ctx ends.
// onRetry, when set, observes each failure that will be retried.
func (r RetryPolicy) Do(
	ctx context.Context,
	wait func(context.Context, time.Duration) error,
	fn func() error,
	onRetry func(attempt int, err error, delay time.Duration),
) error {
	if wait == nil {
		wait = sleepContext
	}
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt > r.MaxRetries {
			return err
		}
		delay := r.NextDelay(attempt)
		if onRetry != nil {
			onRetry(attempt, err, delay)
		}
		if werr := wait(ctx, delay); werr != nil {
			return err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
