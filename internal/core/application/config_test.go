package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/tdex-execd/internal/core/application"
	"github.com/tdex-network/tdex-execd/internal/core/application/order"
	"github.com/tdex-network/tdex-execd/internal/core/ports"
	"github.com/tdex-network/tdex-execd/internal/infrastructure/queue"
	"github.com/tdex-network/tdex-execd/internal/infrastructure/venue/mock"
	"github.com/tdex-network/tdex-execd/pkg/retry"
)

func TestConfig(t *testing.T) {
	t.Run("Invalid", func(t *testing.T) {
		cfg := &application.Config{DBType: "postgres"}
		require.Error(t, cfg.Validate())

		cfg = &application.Config{
			DBType:      application.DBInMemory,
			QueueConfig: queue.DefaultConfig(),
		}
		require.Error(t, cfg.Validate())
	})

	t.Run("Valid", func(t *testing.T) {
		for _, dbType := range []string{application.DBInMemory, application.DBBadger} {
			t.Run(dbType, func(t *testing.T) {
				v, err := mock.NewVenue(mock.Config{
					Name:      "raydium",
					BasePrice: decimal.NewFromInt(1),
				})
				require.NoError(t, err)

				queueCfg := queue.DefaultConfig()
				queueCfg.RateLimit = 1000
				queueCfg.RateWindow = time.Second

				cfg := &application.Config{
					DBType:           dbType,
					DBConfig:         "",
					Venues:           []ports.Venue{v},
					QuoteRetryPolicy: retry.Policy{MaxAttempts: 1, Multiplier: 1},
					QueueConfig:      queueCfg,
				}
				require.NoError(t, cfg.Start(context.Background()))
				defer cfg.Stop()

				svc := cfg.OrderService()
				require.NotNil(t, svc)
				require.NotNil(t, cfg.RepoManager())
				require.NotNil(t, cfg.Queue())
				require.NotNil(t, cfg.Notifier())

				o, err := svc.SubmitOrder(context.Background(), order.SubmitOrderRequest{
					TokenIn: "SOL", TokenOut: "USDC", AmountIn: 10,
				})
				require.NoError(t, err)

				require.Eventually(t, func() bool {
					o, err := svc.GetOrder(context.Background(), o.ID)
					return err == nil && o.IsConfirmed()
				}, 5*time.Second, 10*time.Millisecond)
			})
		}
	})
}
