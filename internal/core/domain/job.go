package domain

import "time"

// JobState is the position of a job within the queue.
type JobState string

const (
	JobStateWaiting JobState = "waiting"
	JobStateDelayed JobState = "delayed"
	JobStateActive  JobState = "active"
)

// Priority classes, lower values are dispatched first.
const (
	PrioritySniper  = 0
	PriorityMarket  = 1
	PriorityLimit   = 2
	PriorityDefault = 3
)

// PriorityForOrderType returns the dispatch class of the given order type.
func PriorityForOrderType(t OrderType) int {
	switch t {
	case OrderTypeSniper:
		return PrioritySniper
	case OrderTypeMarket:
		return PriorityMarket
	case OrderTypeLimit:
		return PriorityLimit
	default:
		return PriorityDefault
	}
}

// Job wraps one order for processing by a worker. The order snapshot and the
// priority are fixed at enqueue time.
type Job struct {
	ID            string
	Order         Order
	Priority      int
	Seq           uint64
	State         JobState
	Attempts      int
	StalledCount  int
	LastError     string
	EnqueuedAt    time.Time
	NextAttemptAt time.Time
}

// NewJob returns a waiting job for the given order.
func NewJob(order Order, seq uint64) *Job {
	return &Job{
		ID:         order.ID,
		Order:      order,
		Priority:   PriorityForOrderType(order.Type),
		Seq:        seq,
		State:      JobStateWaiting,
		EnqueuedAt: time.Now().UTC(),
	}
}

// Less reports whether j must be dispatched before other.
func (j *Job) Less(other *Job) bool {
	if j.Priority != other.Priority {
		return j.Priority < other.Priority
	}
	return j.Seq < other.Seq
}
