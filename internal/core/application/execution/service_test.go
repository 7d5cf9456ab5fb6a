package execution_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/tdex-execd/internal/core/application/execution"
	"github.com/tdex-network/tdex-execd/internal/core/domain"
	"github.com/tdex-network/tdex-execd/internal/core/ports"
	"github.com/tdex-network/tdex-execd/internal/infrastructure/storage/db/inmemory"
	"github.com/tdex-network/tdex-execd/pkg/retry"
)

var ctx = context.Background()

func TestNewService(t *testing.T) {
	repo := inmemory.NewOrderRepositoryImpl()
	router := &mockRouter{}
	notifier := &mockNotifier{}

	_, err := execution.NewService(nil, router, notifier, nil, nil)
	require.Error(t, err)
	_, err = execution.NewService(repo, nil, notifier, nil, nil)
	require.Error(t, err)
	_, err = execution.NewService(repo, router, nil, nil, nil)
	require.Error(t, err)

	svc, err := execution.NewService(repo, router, notifier, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, svc)
}

func TestProcessOrder(t *testing.T) {
	t.Run("Confirmed", testProcessOrderConfirmed())
	t.Run("RoutingFailure", testProcessOrderRoutingFailure())
	t.Run("ExecutionFailure", testProcessOrderExecutionFailure())
	t.Run("BuildFailure", testProcessOrderBuildFailure())
	t.Run("ReRunAfterFailure", testProcessOrderRerun())
	t.Run("AlreadyConfirmed", testProcessOrderAlreadyConfirmed())
}

func testProcessOrderConfirmed() func(t *testing.T) {
	return func(t *testing.T) {
		f := newFixture(t)
		order := f.newOrder(t)

		f.router.On("Route", order.ID).Return(routeResult("meteora"), nil)
		f.venue.On("BuildTransaction", order.ID).Return(nil)
		f.venue.On("Execute", order.ID).Return(&domain.ExecutionResult{
			Success:       true,
			TxHash:        "5xTxHash",
			ExecutedPrice: decimal.RequireFromString("1.03"),
			AmountOut:     decimal.RequireFromString("10.3"),
		}, nil)

		err := f.svc.ProcessOrder(ctx, *order)
		require.NoError(t, err)

		stored, err := f.repo.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		require.Equal(t, domain.OrderStatusConfirmed, stored.Status)
		require.Equal(t, "5xTxHash", stored.TxHash)
		require.Equal(t, "meteora", stored.Dex)
		require.NotEmpty(t, stored.RoutingReason)
		require.True(t, stored.ExecutedPrice.IsPositive())
		require.NotNil(t, stored.ExecutedAt)
		require.Zero(t, stored.RetryCount)

		require.Equal(t, []domain.OrderStatus{
			domain.OrderStatusRouting,
			domain.OrderStatusBuilding,
			domain.OrderStatusSubmitted,
			domain.OrderStatusConfirmed,
		}, f.notifier.statuses())
		require.Equal(t, "5xTxHash", f.notifier.last().Data.TxHash)

		require.Eventually(t, func() bool {
			statuses := f.publisher.statuses()
			return len(statuses) == 1 && statuses[0] == domain.OrderStatusConfirmed
		}, time.Second, 10*time.Millisecond)
	}
}

func testProcessOrderRoutingFailure() func(t *testing.T) {
	return func(t *testing.T) {
		f := newFixture(t)
		order := f.newOrder(t)

		routingErr := &domain.RoutingError{
			Err: &retry.AttemptsError{Attempts: 3, Err: fmt.Errorf("timeout")},
		}
		f.router.On("Route", order.ID).Return(nil, routingErr)

		err := f.svc.ProcessOrder(ctx, *order)
		require.Error(t, err)
		var rErr *domain.RoutingError
		require.True(t, errors.As(err, &rErr))

		stored, err := f.repo.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		require.Equal(t, domain.OrderStatusFailed, stored.Status)
		require.Equal(t, routingErr.Error(), stored.ErrorMessage)
		require.Equal(t, 1, stored.RetryCount)

		require.Equal(t, []domain.OrderStatus{
			domain.OrderStatusRouting,
			domain.OrderStatusFailed,
		}, f.notifier.statuses())
		require.Equal(t, routingErr.Error(), f.notifier.last().Data.Error)
		f.venue.AssertNotCalled(t, "Execute", order.ID)

		require.Eventually(t, func() bool {
			statuses := f.publisher.statuses()
			return len(statuses) == 1 && statuses[0] == domain.OrderStatusFailed
		}, time.Second, 10*time.Millisecond)
	}
}

func testProcessOrderExecutionFailure() func(t *testing.T) {
	return func(t *testing.T) {
		f := newFixture(t)
		order := f.newOrder(t)

		f.router.On("Route", order.ID).Return(routeResult("meteora"), nil)
		f.venue.On("BuildTransaction", order.ID).Return(nil)
		f.venue.On("Execute", order.ID).Return(&domain.ExecutionResult{
			Success: false,
			Error:   "slippage tolerance exceeded",
		}, nil)

		err := f.svc.ProcessOrder(ctx, *order)
		var execErr *domain.ExecutionError
		require.True(t, errors.As(err, &execErr))
		require.Equal(t, "meteora", execErr.Venue)

		stored, err := f.repo.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		require.Equal(t, domain.OrderStatusFailed, stored.Status)
		require.Contains(t, stored.ErrorMessage, "slippage tolerance exceeded")
		require.Equal(t, "meteora", stored.Dex)

		require.Equal(t, []domain.OrderStatus{
			domain.OrderStatusRouting,
			domain.OrderStatusBuilding,
			domain.OrderStatusSubmitted,
			domain.OrderStatusFailed,
		}, f.notifier.statuses())
	}
}

func testProcessOrderBuildFailure() func(t *testing.T) {
	return func(t *testing.T) {
		f := newFixture(t)
		order := f.newOrder(t)

		f.router.On("Route", order.ID).Return(routeResult("meteora"), nil)
		f.venue.On("BuildTransaction", order.ID).Return(fmt.Errorf("rpc unavailable"))

		err := f.svc.ProcessOrder(ctx, *order)
		require.Error(t, err)

		require.Equal(t, []domain.OrderStatus{
			domain.OrderStatusRouting,
			domain.OrderStatusBuilding,
			domain.OrderStatusFailed,
		}, f.notifier.statuses())
	}
}

func testProcessOrderRerun() func(t *testing.T) {
	return func(t *testing.T) {
		f := newFixture(t)
		order := f.newOrder(t)

		f.router.On("Route", order.ID).Return(nil, fmt.Errorf("no quotes")).Once()
		f.router.On("Route", order.ID).Return(routeResult("meteora"), nil)
		f.venue.On("BuildTransaction", order.ID).Return(nil)
		f.venue.On("Execute", order.ID).Return(&domain.ExecutionResult{
			Success:       true,
			TxHash:        "txhash",
			ExecutedPrice: decimal.NewFromInt(1),
			AmountOut:     decimal.NewFromInt(10),
		}, nil)

		require.Error(t, f.svc.ProcessOrder(ctx, *order))
		require.NoError(t, f.svc.ProcessOrder(ctx, *order))

		stored, err := f.repo.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		require.Equal(t, domain.OrderStatusConfirmed, stored.Status)
		require.Equal(t, 1, stored.RetryCount)
		require.Empty(t, stored.ErrorMessage)

		last := f.notifier.last()
		require.Equal(t, domain.OrderStatusConfirmed, last.Status)
		require.NotNil(t, last.Data)
		require.Empty(t, last.Data.Error)
		require.Equal(t, "txhash", last.Data.TxHash)
	}
}

func testProcessOrderAlreadyConfirmed() func(t *testing.T) {
	return func(t *testing.T) {
		f := newFixture(t)
		order := f.newOrder(t)

		for _, st := range []domain.OrderStatus{
			domain.OrderStatusRouting, domain.OrderStatusBuilding,
			domain.OrderStatusSubmitted, domain.OrderStatusConfirmed,
		} {
			_, err := f.repo.UpdateOrderStatus(ctx, order.ID, st, domain.OrderUpdate{})
			require.NoError(t, err)
		}

		require.NoError(t, f.svc.ProcessOrder(ctx, *order))
		require.Empty(t, f.notifier.statuses())
		f.router.AssertNotCalled(t, "Route", order.ID)
	}
}

func TestValidateMarketOrder(t *testing.T) {
	tests := []struct {
		name   string
		order  domain.Order
		valid  bool
		reason string
	}{
		{
			name:  "valid",
			order: *domain.NewMarketOrder("SOL", "USDC", 10),
			valid: true,
		},
		{
			name:   "same tokens",
			order:  *domain.NewMarketOrder("USDC", "USDC", 5),
			reason: "Input and output tokens must be different",
		},
		{
			name:   "missing token in",
			order:  *domain.NewMarketOrder("", "USDC", 5),
			reason: execution.ReasonMissingTokens,
		},
		{
			name:   "missing token out",
			order:  *domain.NewMarketOrder("SOL", " ", 5),
			reason: execution.ReasonMissingTokens,
		},
		{
			name:   "zero amount",
			order:  *domain.NewMarketOrder("SOL", "USDC", 0),
			reason: execution.ReasonInvalidAmount,
		},
		{
			name:   "negative amount",
			order:  *domain.NewMarketOrder("SOL", "USDC", -1),
			reason: execution.ReasonInvalidAmount,
		},
		{
			name:   "limit order",
			order:  *domain.NewOrder(domain.OrderTypeLimit, "SOL", "USDC", 1),
			reason: execution.ReasonUnsupportedType,
		},
	}

	for i := range tests {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			valid, reason := execution.ValidateMarketOrder(tt.order)
			require.Equal(t, tt.valid, valid)
			require.Equal(t, tt.reason, reason)
		})
	}
}

type fixture struct {
	repo      domain.OrderRepository
	router    *mockRouter
	venue     *mockVenue
	notifier  *mockNotifier
	publisher *mockPublisher
	svc       *execution.Service
}

func newFixture(t *testing.T) *fixture {
	venue := &mockVenue{name: "meteora"}
	f := &fixture{
		repo:      inmemory.NewOrderRepositoryImpl(),
		router:    &mockRouter{venues: map[string]ports.Venue{"meteora": venue}},
		venue:     venue,
		notifier:  &mockNotifier{},
		publisher: &mockPublisher{},
	}
	svc, err := execution.NewService(f.repo, f.router, f.notifier, f.publisher, nil)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *fixture) newOrder(t *testing.T) *domain.Order {
	order := domain.NewMarketOrder("SOL", "USDC", 10)
	require.NoError(t, f.repo.CreateOrder(ctx, order))
	return order
}

func routeResult(venue string) *domain.RouteResult {
	return &domain.RouteResult{
		Venue:  venue,
		Reason: fmt.Sprintf("%s selected: better effective price (1.03 vs 1.00)", venue),
	}
}
