package queue

import (
	"fmt"
	"time"

	"github.com/tdex-network/tdex-execd/pkg/retry"
)

const (
	DefaultConcurrency     = 10
	DefaultRateLimit       = 100
	DefaultRateWindow      = 60 * time.Second
	DefaultMaxStalledCount = 1
	DefaultJobTimeout      = 5 * time.Minute
)

// DefaultRetryPolicy is the job level retry policy: 3 attempts in total
// with a doubling delay starting from 2 seconds and no cap.
var DefaultRetryPolicy = retry.Policy{
	MaxAttempts: 3,
	BaseDelay:   2 * time.Second,
	Multiplier:  2,
}

// Config holds the tunables of the queue.
type Config struct {
	// Concurrency is the max number of jobs processed at the same time.
	Concurrency int
	// RateLimit is the max number of jobs dispatched every RateWindow.
	// Dispatches are spaced by RateWindow/RateLimit, also after idle periods.
	RateLimit  int
	RateWindow time.Duration
	// RetryPolicy decides whether and when a failed job is run again.
	RetryPolicy retry.Policy
	// MaxStalledCount is the number of times a job whose worker died is put
	// back in the queue before being marked as failed.
	MaxStalledCount int
	// JobTimeout bounds the time a worker spends on a single job.
	JobTimeout time.Duration
}

// DefaultConfig returns the default queue configuration.
func DefaultConfig() Config {
	return Config{
		Concurrency:     DefaultConcurrency,
		RateLimit:       DefaultRateLimit,
		RateWindow:      DefaultRateWindow,
		RetryPolicy:     DefaultRetryPolicy,
		MaxStalledCount: DefaultMaxStalledCount,
		JobTimeout:      DefaultJobTimeout,
	}
}

func (c Config) validate() error {
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be greater than zero")
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("rate limit must be greater than zero")
	}
	if c.RateWindow <= 0 {
		return fmt.Errorf("rate window must be greater than zero")
	}
	if err := c.RetryPolicy.Validate(); err != nil {
		return fmt.Errorf("invalid job retry policy: %w", err)
	}
	if c.MaxStalledCount < 0 {
		return fmt.Errorf("max stalled count must not be negative")
	}
	if c.JobTimeout <= 0 {
		return fmt.Errorf("job timeout must be greater than zero")
	}
	return nil
}
