package routing_test

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/tdex-network/tdex-execd/internal/core/domain"
	"github.com/tdex-network/tdex-execd/internal/core/ports"
)

// **** Venue ****

type mockVenue struct {
	mock.Mock
	name string
}

func newMockVenue(name string) *mockVenue {
	return &mockVenue{name: name}
}

func (m *mockVenue) Name() string {
	return m.name
}

func (m *mockVenue) Quote(
	ctx context.Context, tokenIn, tokenOut string, amount int64,
) (*ports.VenueQuote, error) {
	args := m.Called(tokenIn, tokenOut, amount)

	var res *ports.VenueQuote
	if a := args.Get(0); a != nil {
		res = a.(*ports.VenueQuote)
	}
	return res, args.Error(1)
}

func (m *mockVenue) BuildTransaction(ctx context.Context, order domain.Order) error {
	args := m.Called(order)
	return args.Error(0)
}

func (m *mockVenue) Execute(
	ctx context.Context, order domain.Order,
) (*domain.ExecutionResult, error) {
	args := m.Called(order)

	var res *domain.ExecutionResult
	if a := args.Get(0); a != nil {
		res = a.(*domain.ExecutionResult)
	}
	return res, args.Error(1)
}
