package venue_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/tdex-execd/internal/core/domain"
	"github.com/tdex-network/tdex-execd/internal/core/ports"
	"github.com/tdex-network/tdex-execd/internal/infrastructure/venue"
	"github.com/tdex-network/tdex-execd/pkg/circuitbreaker"
)

type failingVenue struct {
	calls int
}

func (v *failingVenue) Name() string { return "raydium" }

func (v *failingVenue) Quote(
	context.Context, string, string, int64,
) (*ports.VenueQuote, error) {
	v.calls++
	return nil, fmt.Errorf("connection refused")
}

func (v *failingVenue) BuildTransaction(context.Context, domain.Order) error {
	v.calls++
	return nil
}

func (v *failingVenue) Execute(
	context.Context, domain.Order,
) (*domain.ExecutionResult, error) {
	v.calls++
	return &domain.ExecutionResult{Success: true, TxHash: "txid"}, nil
}

func TestWithCircuitBreaker(t *testing.T) {
	v := &failingVenue{}
	wrapped := venue.WithCircuitBreaker(v)
	require.Equal(t, "raydium", wrapped.Name())

	order := *domain.NewMarketOrder("SOL", "USDC", 10)
	require.NoError(t, wrapped.BuildTransaction(context.Background(), order))
	res, err := wrapped.Execute(context.Background(), order)
	require.NoError(t, err)
	require.Equal(t, "txid", res.TxHash)

	for i := 0; i <= circuitbreaker.MaxNumOfFailingRequests; i++ {
		_, err := wrapped.Quote(context.Background(), "SOL", "USDC", 10)
		require.Error(t, err)
	}

	calls := v.calls
	_, err = wrapped.Quote(context.Background(), "SOL", "USDC", 10)
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	require.Equal(t, calls, v.calls)
}
