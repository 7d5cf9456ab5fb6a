package ports

import (
	"time"

	"github.com/tdex-network/tdex-execd/internal/core/domain"
)

// Metrics collects operational measurements of the execution pipeline.
type Metrics interface {
	// RouteSelected records the venue chosen for an order.
	RouteSelected(venue string)
	// QuoteRound records the duration and outcome of a quote round attempt.
	QuoteRound(duration time.Duration, err error)
	// OrderTransition records an order entering the given status.
	OrderTransition(status domain.OrderStatus)
	// JobFinished records the outcome of a job attempt.
	JobFinished(outcome string, duration time.Duration)
	// QueueStats records the current job counts.
	QueueStats(stats QueueStats)
	// SubscriberEvicted records a live channel removed from the registry.
	SubscriberEvicted()
}

// Job attempt outcomes.
const (
	JobOutcomeCompleted = "completed"
	JobOutcomeRetried   = "retried"
	JobOutcomeFailed    = "failed"
)

// NoopMetrics discards every measurement.
type NoopMetrics struct{}

func (NoopMetrics) RouteSelected(string)               {}
func (NoopMetrics) QuoteRound(time.Duration, error)    {}
func (NoopMetrics) OrderTransition(domain.OrderStatus) {}
func (NoopMetrics) JobFinished(string, time.Duration)  {}
func (NoopMetrics) QueueStats(QueueStats)              {}
func (NoopMetrics) SubscriberEvicted()                 {}
