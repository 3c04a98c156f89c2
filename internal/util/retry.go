package util

import (
	"context"
	"errors"
	"time"
)

// Retry calls fn up to maxTries times until it returns a nil error.
// If maxTries <= 0, it defaults to 1. Returns the last error if all attempts fail.
func Retry[T any](maxTries int, fn func() (T, error)) (T, error) {
	return RetryWithContext(context.Background(), maxTries, 0, func(context.Context) (T, error) {
		return fn()
	})
}

// RetryWithContext calls fn up to maxTries times until it returns a nil error,
// waiting delay between attempts, or until ctx is done. Cancellation errors
// returned by fn stop the loop immediately.
func RetryWithContext[T any](
	ctx context.Context,
	maxTries int,
	delay time.Duration,
	fn func(context.Context) (T, error),
) (T, error) {
	if maxTries <= 0 {
		maxTries = 1
	}
	var lastErr error
	var zero T
	for i := range maxTries {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if i > 0 && delay > 0 {
			if err := sleep(ctx, delay); err != nil {
				return zero, err
			}
		}
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return zero, err
		}
		lastErr = err
	}
	return zero, lastErr
}

// RetryErrWithContext is RetryWithContext for functions without a result.
func RetryErrWithContext(ctx context.Context, maxTries int, delay time.Duration, fn func(context.Context) error) error {
	_, err := RetryWithContext(ctx, maxTries, delay, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
