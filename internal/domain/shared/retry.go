package shared

import (
	"context"
	"fmt"
	"time"
)

// RetryExhaustedError indicates that all retry attempts were used without success
type RetryExhaustedError struct {
	Attempts int
	LastErr  error
}

// Error implements the error interface
func (e *RetryExhaustedError) Error() string {
	if e.LastErr != nil {
		return fmt.Sprintf("retry exhausted after %d attempts: %v", e.Attempts, e.LastErr)
	}
	return fmt.Sprintf("retry exhausted after %d attempts", e.Attempts)
}

// Unwrap returns the last error observed before exhaustion
func (e *RetryExhaustedError) Unwrap() error {
	return e.LastErr
}

// Retry runs fn up to maxAttempts times with a fixed delay between attempts.
// It returns the first successful result, or a RetryExhaustedError wrapping the
// last failure. Cancellation of ctx stops the loop between attempts; there is
// no other timeout beyond the attempt bound.
func Retry[T any](ctx context.Context, maxAttempts int, delay time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	return zero, &RetryExhaustedError{Attempts: maxAttempts, LastErr: lastErr}
}

// RetryUntil re-runs fn until accept returns true for its result, up to
// maxAttempts times with a fixed delay between attempts. When attempts are
// exhausted the last successfully fetched result is returned with ok=false so
// callers can proceed best-effort. A non-nil error is returned only when every
// attempt failed outright or ctx was cancelled.
func RetryUntil[T any](ctx context.Context, maxAttempts int, delay time.Duration, fn func(context.Context) (T, error), accept func(T) bool) (T, bool, error) {
	var last T
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	fetched := false
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			last = result
			fetched = true
			lastErr = nil
			if accept(result) {
				return result, true, nil
			}
		} else {
			lastErr = err
		}

		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return last, false, ctx.Err()
		case <-time.After(delay):
		}
	}

	if !fetched {
		return last, false, &RetryExhaustedError{Attempts: maxAttempts, LastErr: lastErr}
	}
	return last, false, nil
}
