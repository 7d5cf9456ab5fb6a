package mock

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tdex-network/tdex-execd/internal/core/domain"
	"github.com/tdex-network/tdex-execd/internal/core/ports"
	"github.com/thanhpk/randstr"
)

var (
	ErrQuoteUnavailable = fmt.Errorf("quote temporarily unavailable")

	executionErrors = []string{
		"slippage tolerance exceeded",
		"insufficient liquidity",
		"transaction expired",
	}
)

type venue struct {
	cfg Config

	lock sync.Mutex
	rnd  *rand.Rand
}

// NewVenue returns a simulated venue that quotes around the configured base
// price and executes swaps after a fixed latency.
func NewVenue(cfg Config) (ports.Venue, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &venue{
		cfg: cfg,
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

func (v *venue) Name() string {
	return v.cfg.Name
}

func (v *venue) Quote(
	ctx context.Context, tokenIn, tokenOut string, amount int64,
) (*ports.VenueQuote, error) {
	if err := sleep(ctx, v.cfg.QuoteLatency); err != nil {
		return nil, err
	}
	if v.chance(v.cfg.QuoteFailureRate) {
		return nil, ErrQuoteUnavailable
	}

	price := v.deviate(v.cfg.BasePrice, v.cfg.Spread)
	if v.cfg.QuoteInTokenIn {
		return &ports.VenueQuote{
			Price:     decimal.NewFromInt(1).Div(price),
			BaseAsset: tokenIn,
			Fee:       v.cfg.Fee,
		}, nil
	}
	return &ports.VenueQuote{
		Price:     price,
		BaseAsset: tokenOut,
		Fee:       v.cfg.Fee,
	}, nil
}

func (v *venue) BuildTransaction(ctx context.Context, _ domain.Order) error {
	return sleep(ctx, v.cfg.BuildLatency)
}

func (v *venue) Execute(
	ctx context.Context, order domain.Order,
) (*domain.ExecutionResult, error) {
	if err := sleep(ctx, v.cfg.ExecutionLatency); err != nil {
		return nil, err
	}

	if v.chance(v.cfg.ExecutionFailureRate) {
		return &domain.ExecutionResult{
			Success: false,
			Error:   executionErrors[v.intn(len(executionErrors))],
		}, nil
	}

	price := v.deviate(v.cfg.BasePrice, v.cfg.Slippage)
	amountOut := decimal.NewFromInt(order.AmountIn).Mul(price)
	feeAmount := amountOut.Mul(v.cfg.Fee)

	return &domain.ExecutionResult{
		Success:       true,
		TxHash:        randstr.Hex(32),
		ExecutedPrice: price,
		AmountOut:     amountOut.Sub(feeAmount),
	}, nil
}

// deviate returns price moved by a random relative amount in
// [-maxDeviation, maxDeviation].
func (v *venue) deviate(price decimal.Decimal, maxDeviation float64) decimal.Decimal {
	if maxDeviation <= 0 {
		return price
	}
	v.lock.Lock()
	delta := (v.rnd.Float64()*2 - 1) * maxDeviation
	v.lock.Unlock()
	return price.Mul(decimal.NewFromFloat(1 + delta)).Round(8)
}

func (v *venue) chance(p float64) bool {
	if p <= 0 {
		return false
	}
	v.lock.Lock()
	defer v.lock.Unlock()
	return v.rnd.Float64() < p
}

func (v *venue) intn(n int) int {
	v.lock.Lock()
	defer v.lock.Unlock()
	return v.rnd.Intn(n)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
