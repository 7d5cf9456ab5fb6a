package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrOrderNotFound is returned when no order matches the given id.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderAlreadyExists is returned when creating an order whose id is
	// already stored.
	ErrOrderAlreadyExists = errors.New("order already exists")
	// ErrInvalidOrderStatus ...
	ErrInvalidOrderStatus = errors.New("invalid order status")
	// ErrNoVenues is returned when routing is attempted without any venue.
	ErrNoVenues = errors.New("no venue configured")
)

// ValidationError is returned when an order is rejected before being
// accepted. Orders failing validation are never stored nor queued.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// RoutingError is returned when no venue could be selected for an order
// because every quote round failed.
type RoutingError struct {
	Err error
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("routing failed: %s", e.Err)
}

func (e *RoutingError) Unwrap() error {
	return e.Err
}

// ExecutionError is returned when a venue reports a failed execution.
type ExecutionError struct {
	Venue  string
	Reason string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution on %s failed: %s", e.Venue, e.Reason)
}

// PersistenceError wraps any failure of the order store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %s", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// TransitionError is returned when an order is asked to move to a status not
// reachable from the current one.
type TransitionError struct {
	OrderID string
	From    OrderStatus
	To      OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf(
		"order %s cannot transition from %s to %s", e.OrderID, e.From, e.To,
	)
}
