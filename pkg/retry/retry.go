// Package retry provides a bounded retry wrapper with exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrInvalidMaxAttempts ...
	ErrInvalidMaxAttempts = errors.New("max attempts must be greater than zero")
	// ErrInvalidBaseDelay ...
	ErrInvalidBaseDelay = errors.New("base delay must not be negative")
	// ErrInvalidMultiplier ...
	ErrInvalidMultiplier = errors.New("multiplier must be at least 1")
)

// Policy defines how many times an operation is attempted and how long to
// wait between attempts. The wait before attempt n+1 is
// min(BaseDelay * Multiplier^n, MaxDelay), with n starting from 0.
// A zero MaxDelay means the delay is not capped.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

// Validate returns an error if the policy can't be used.
func (p Policy) Validate() error {
	if p.MaxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}
	if p.BaseDelay < 0 {
		return ErrInvalidBaseDelay
	}
	if p.Multiplier < 1 {
		return ErrInvalidMultiplier
	}
	return nil
}

// Delay returns the time to wait after the given failed attempt (0-based).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt))
	d := time.Duration(math.MaxInt64)
	if delay < math.MaxInt64 {
		d = time.Duration(delay)
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// AttemptsError is returned once all the attempts of a policy failed.
type AttemptsError struct {
	Attempts int
	Err      error
}

func (e *AttemptsError) Error() string {
	return fmt.Sprintf("operation failed after %d attempts: %s", e.Attempts, e.Err)
}

func (e *AttemptsError) Unwrap() error {
	return e.Err
}

// Do calls op until it succeeds or the policy's attempts are exhausted,
// sleeping between consecutive attempts. It stops early, returning the
// context error, if ctx is done while waiting.
func Do[T any](
	ctx context.Context, policy Policy, op func(ctx context.Context) (T, error),
) (T, error) {
	var zero T
	if err := policy.Validate(); err != nil {
		return zero, err
	}

	var lastErr error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		res, err := op(ctx)
		if err == nil {
			return res, nil
		}
		lastErr = err

		if attempt == policy.MaxAttempts-1 {
			break
		}

		timer := time.NewTimer(policy.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("%w: last error: %s", ctx.Err(), lastErr)
		case <-timer.C:
		}
	}

	return zero, &AttemptsError{Attempts: policy.MaxAttempts, Err: lastErr}
}

// WorstCaseAttempts returns the maximum number of times the innermost
// operation runs when retry policies are nested, outer first.
func WorstCaseAttempts(policies ...Policy) int {
	total := 1
	for _, p := range policies {
		total *= p.MaxAttempts
	}
	return total
}

// WorstCaseDelay returns the total time spent sleeping by a policy whose
// attempts all fail.
func (p Policy) WorstCaseDelay() time.Duration {
	var total time.Duration
	for i := 0; i < p.MaxAttempts-1; i++ {
		total += p.Delay(i)
	}
	return total
}
