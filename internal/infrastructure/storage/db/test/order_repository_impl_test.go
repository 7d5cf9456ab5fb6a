package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/tdex-execd/internal/core/domain"
)

var ctx = context.Background()

func TestOrderRepositoryImplementations(t *testing.T) {
	managers := createRepoManagers(t)

	for i := range managers {
		manager := managers[i]

		t.Run(manager.Name, func(t *testing.T) {
			repo := manager.OrderRepository()

			t.Run("testCreateAndGetOrder", func(t *testing.T) {
				testCreateAndGetOrder(t, repo)
			})
			t.Run("testUpdateOrderStatus", func(t *testing.T) {
				testUpdateOrderStatus(t, repo)
			})
			t.Run("testFailingUpdateOrderStatus", func(t *testing.T) {
				testFailingUpdateOrderStatus(t, repo)
			})
		})
	}
}

func testCreateAndGetOrder(t *testing.T, repo domain.OrderRepository) {
	order := domain.NewMarketOrder("SOL", "USDC", 10)

	err := repo.CreateOrder(ctx, order)
	require.NoError(t, err)

	err = repo.CreateOrder(ctx, order)
	require.ErrorIs(t, err, domain.ErrOrderAlreadyExists)

	stored, err := repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, order.ID, stored.ID)
	require.Equal(t, domain.OrderStatusPending, stored.Status)
	require.Equal(t, int64(10), stored.AmountIn)
	require.True(t, order.CreatedAt.Equal(stored.CreatedAt))

	stored, err = repo.GetOrder(ctx, "unknown")
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
	require.Nil(t, stored)
}

func testUpdateOrderStatus(t *testing.T, repo domain.OrderRepository) {
	order := domain.NewMarketOrder("SOL", "USDC", 10)
	require.NoError(t, repo.CreateOrder(ctx, order))

	updated, err := repo.UpdateOrderStatus(
		ctx, order.ID, domain.OrderStatusRouting, domain.OrderUpdate{},
	)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusRouting, updated.Status)
	require.False(t, updated.UpdatedAt.Before(order.UpdatedAt))

	_, err = repo.UpdateOrderStatus(
		ctx, order.ID, domain.OrderStatusBuilding,
		domain.OrderUpdate{}.WithDex("raydium").WithRoutingReason("reason"),
	)
	require.NoError(t, err)

	_, err = repo.UpdateOrderStatus(
		ctx, order.ID, domain.OrderStatusSubmitted, domain.OrderUpdate{},
	)
	require.NoError(t, err)

	executedAt := time.Now()
	price := decimal.RequireFromString("1.03")
	_, err = repo.UpdateOrderStatus(
		ctx, order.ID, domain.OrderStatusConfirmed,
		domain.OrderUpdate{}.
			WithTxHash("txhash").
			WithExecutedAt(executedAt).
			WithExecution(price, decimal.NewFromInt(10)),
	)
	require.NoError(t, err)

	stored, err := repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusConfirmed, stored.Status)
	require.Equal(t, "raydium", stored.Dex)
	require.Equal(t, "reason", stored.RoutingReason)
	require.Equal(t, "txhash", stored.TxHash)
	require.NotNil(t, stored.ExecutedAt)
	require.True(t, executedAt.Equal(*stored.ExecutedAt))
	require.True(t, price.Equal(stored.ExecutedPrice))
	require.Zero(t, stored.RetryCount)
}

func testFailingUpdateOrderStatus(t *testing.T, repo domain.OrderRepository) {
	_, err := repo.UpdateOrderStatus(
		ctx, "unknown", domain.OrderStatusRouting, domain.OrderUpdate{},
	)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)

	order := domain.NewMarketOrder("SOL", "USDC", 10)
	require.NoError(t, repo.CreateOrder(ctx, order))

	_, err = repo.UpdateOrderStatus(
		ctx, order.ID, domain.OrderStatusConfirmed, domain.OrderUpdate{},
	)
	var transitionErr *domain.TransitionError
	require.True(t, errors.As(err, &transitionErr))

	// A rejected transition leaves the stored record untouched.
	stored, err := repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusPending, stored.Status)

	updated, err := repo.UpdateOrderStatus(
		ctx, order.ID, domain.OrderStatusFailed,
		domain.OrderUpdate{}.WithError("enqueue failed"),
	)
	require.NoError(t, err)
	require.Equal(t, 1, updated.RetryCount)
	require.Equal(t, "enqueue failed", updated.ErrorMessage)
}
