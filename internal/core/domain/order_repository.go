package domain

import "context"

// OrderRepository is the abstraction for any kind of database intended to
// persist Orders.
type OrderRepository interface {
	// CreateOrder stores a new order, failing if the id is already taken.
	CreateOrder(ctx context.Context, order *Order) error
	// GetOrder returns the order with the given id, or ErrOrderNotFound.
	GetOrder(ctx context.Context, orderID string) (*Order, error)
	// UpdateOrderStatus moves the order to the given status and merges the
	// update in a single atomic commit. The updated order is returned.
	UpdateOrderStatus(
		ctx context.Context, orderID string, status OrderStatus,
		update OrderUpdate,
	) (*Order, error)
}

// JobRepository persists queue entries so that they survive a restart.
type JobRepository interface {
	// AddJob stores the job, returning false if one with the same id exists.
	AddJob(ctx context.Context, job *Job) (bool, error)
	// UpdateJob overwrites the stored job.
	UpdateJob(ctx context.Context, job *Job) error
	// DeleteJob removes the job with the given id.
	DeleteJob(ctx context.Context, jobID string) error
	// GetAllJobs returns every job, sorted by priority and sequence.
	GetAllJobs(ctx context.Context) ([]*Job, error)
	// GetCounters returns the persisted completed/failed counts.
	GetCounters(ctx context.Context) (*JobCounters, error)
	// IncrementCounters atomically adds to the persisted counts.
	IncrementCounters(ctx context.Context, completed, failed int) error
}

// JobCounters holds the number of jobs that reached a terminal outcome.
type JobCounters struct {
	Completed int
	Failed    int
}
