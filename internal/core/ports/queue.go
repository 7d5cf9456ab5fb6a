package ports

import (
	"context"

	"github.com/tdex-network/tdex-execd/internal/core/domain"
)

// OrderProcessor runs one order to a terminal status.
type OrderProcessor interface {
	ProcessOrder(ctx context.Context, order domain.Order) error
}

// QueueStats holds the number of jobs per state.
type QueueStats struct {
	Waiting   int  `json:"waiting"`
	Active    int  `json:"active"`
	Delayed   int  `json:"delayed"`
	Completed int  `json:"completed"`
	Failed    int  `json:"failed"`
	Paused    bool `json:"paused"`
}

// JobQueue dispatches orders to an OrderProcessor.
type JobQueue interface {
	// Enqueue adds a job for the order, doing nothing if one already exists.
	Enqueue(ctx context.Context, order domain.Order) error
	// Stats returns the job counts.
	Stats() QueueStats
	// Pause stops dispatching new jobs.
	Pause()
	// Resume restarts dispatching jobs.
	Resume()
	// Close waits for in-flight jobs and releases resources.
	Close()
}
