package ports

import "github.com/tdex-network/tdex-execd/internal/core/domain"

// StatusChannel is a live delivery endpoint registered against an order id.
type StatusChannel interface {
	// Send pushes the update to the remote end.
	Send(update domain.StatusUpdate) error
	// Ping probes the remote end, failing if it is gone.
	Ping() error
	// IsOpen returns whether the channel can still be written.
	IsOpen() bool
	// Close releases the channel.
	Close() error
}

// StatusNotifier delivers status transitions to live subscribers.
type StatusNotifier interface {
	// Subscribe registers the channel for the order, replacing any previous
	// one, and pushes the current snapshot of the order to it.
	Subscribe(orderID string, channel StatusChannel) error
	// Broadcast delivers the update to the channel registered for its order,
	// if any.
	Broadcast(update domain.StatusUpdate)
}

// Publisher forwards terminal order updates to external subscribers.
type Publisher interface {
	// Publish notifies every configured endpoint of the update.
	Publish(update domain.StatusUpdate) error
}
