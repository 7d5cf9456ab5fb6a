package venue

import (
	"context"

	"github.com/sony/gobreaker"
	"github.com/tdex-network/tdex-execd/internal/core/domain"
	"github.com/tdex-network/tdex-execd/internal/core/ports"
	"github.com/tdex-network/tdex-execd/pkg/circuitbreaker"
)

type breakerVenue struct {
	ports.Venue
	cb *gobreaker.CircuitBreaker
}

// WithCircuitBreaker wraps the venue so that all its calls go through a
// dedicated circuit breaker. Once open, calls fail immediately with
// gobreaker.ErrOpenState until the breaker lets a probe through.
func WithCircuitBreaker(v ports.Venue) ports.Venue {
	return &breakerVenue{
		Venue: v,
		cb:    circuitbreaker.NewCircuitBreaker(v.Name()),
	}
}

func (v *breakerVenue) Quote(
	ctx context.Context, tokenIn, tokenOut string, amount int64,
) (*ports.VenueQuote, error) {
	return circuitbreaker.Execute(v.cb, func() (*ports.VenueQuote, error) {
		return v.Venue.Quote(ctx, tokenIn, tokenOut, amount)
	})
}

func (v *breakerVenue) BuildTransaction(
	ctx context.Context, order domain.Order,
) error {
	_, err := circuitbreaker.Execute(v.cb, func() (struct{}, error) {
		return struct{}{}, v.Venue.BuildTransaction(ctx, order)
	})
	return err
}

func (v *breakerVenue) Execute(
	ctx context.Context, order domain.Order,
) (*domain.ExecutionResult, error) {
	return circuitbreaker.Execute(v.cb, func() (*domain.ExecutionResult, error) {
		return v.Venue.Execute(ctx, order)
	})
}
