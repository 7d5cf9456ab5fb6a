package ports

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/tdex-network/tdex-execd/internal/core/domain"
)

// VenueQuote is the price returned by a venue in its own quoting direction:
// Price is expressed as units of BaseAsset per unit of the counter asset.
type VenueQuote struct {
	Price     decimal.Decimal
	BaseAsset string
	Fee       decimal.Decimal
}

// Venue is the boundary with a liquidity source. The core treats both calls
// as opaque effects: Quote may fail on transient errors, while Execute
// reports a failed swap through ExecutionResult rather than an error.
type Venue interface {
	// Name returns the identifier of the venue.
	Name() string
	// Quote returns the venue's price for swapping amount of tokenIn.
	Quote(
		ctx context.Context, tokenIn, tokenOut string, amount int64,
	) (*VenueQuote, error)
	// BuildTransaction prepares the swap transaction for the order.
	BuildTransaction(ctx context.Context, order domain.Order) error
	// Execute submits the swap for the order and waits for its outcome.
	Execute(ctx context.Context, order domain.Order) (*domain.ExecutionResult, error)
}
