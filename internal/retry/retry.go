// Package retry wraps fallible operations with bounded exponential backoff.
//
// Every outbound network call in the pipeline (provider lookups, artwork
// downloads) runs through Do or DoValue so failure handling is not
// duplicated per call site. Only errors matching the policy's Retryable
// predicate are retried; everything else propagates on first occurrence.
package retry

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"mpvscraper/internal/services"
)

// Policy controls how an operation is retried.
type Policy struct {
	// MaxAttempts is the total number of invocations, including the first.
	MaxAttempts int
	// BaseDelay is the sleep before the second attempt; attempt n waits
	// BaseDelay * 2^(n-1).
	BaseDelay time.Duration
	// Retryable decides which failures warrant another attempt. Nil means
	// IsRetriable.
	Retryable func(error) bool
}

// Default returns the policy used when the configuration supplies nothing.
func Default() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond}
}

// Do invokes op until it succeeds, a non-retryable error occurs, or the
// attempt budget is exhausted. Exhaustion wraps the final error with the
// transient marker so callers classify it uniformly.
func Do(ctx context.Context, policy Policy, op func() error) error {
	attempts := policy.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	retryable := policy.Retryable
	if retryable == nil {
		retryable = IsRetriable
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, policy.BaseDelay<<(attempt-1)); err != nil {
				return err
			}
		}
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
	}
	if errors.Is(lastErr, services.ErrTransient) {
		return lastErr
	}
	return services.Wrap(services.ErrTransient, "", "", "retries exhausted", lastErr)
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, policy Policy, op func() (T, error)) (T, error) {
	var result T
	err := Do(ctx, policy, func() error {
		var opErr error
		result, opErr = op()
		return opErr
	})
	return result, err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsRetriable reports whether err represents a transient condition that
// warrants an automatic retry (rate limits, timeouts, connection errors).
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, services.ErrUnconfigured) || errors.Is(err, services.ErrNotFound) || errors.Is(err, services.ErrValidation) {
		return false
	}
	if errors.Is(err, services.ErrTransient) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	message := strings.ToLower(err.Error())
	if strings.Contains(message, "429") || strings.Contains(message, "rate limit") {
		return true
	}
	// Server errors are typically transient (outages, deploys, overload).
	for _, code := range []string{"500", "502", "503", "504"} {
		if strings.Contains(message, "returned "+code) {
			return true
		}
	}
	for _, token := range []string{
		"timeout",
		"deadline exceeded",
		"connection reset",
		"connection refused",
		"temporary failure",
		"unexpected eof",
		"awaiting headers",
	} {
		if strings.Contains(message, token) {
			return true
		}
	}
	return false
}
