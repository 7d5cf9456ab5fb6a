package mock

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Config tunes the behavior of a simulated venue.
type Config struct {
	// Name is the identifier of the venue.
	Name string
	// BasePrice is the reference price expressed as units of tokenOut per
	// unit of tokenIn.
	BasePrice decimal.Decimal
	// Spread is the max relative deviation of a quote from BasePrice.
	Spread float64
	// Fee is the relative fee applied by the venue.
	Fee decimal.Decimal
	// Slippage is the max relative deviation of the executed price from
	// the quoted one.
	Slippage float64
	// QuoteInTokenIn makes the venue quote in the opposite direction, using
	// tokenIn as base asset.
	QuoteInTokenIn bool

	QuoteLatency     time.Duration
	BuildLatency     time.Duration
	ExecutionLatency time.Duration

	// QuoteFailureRate is the probability for a quote request to fail.
	QuoteFailureRate float64
	// ExecutionFailureRate is the probability for an execution to be
	// reported as failed.
	ExecutionFailureRate float64
}

func (c Config) validate() error {
	if c.Name == "" {
		return fmt.Errorf("missing venue name")
	}
	if !c.BasePrice.IsPositive() {
		return fmt.Errorf("base price must be positive")
	}
	if c.Spread < 0 || c.Spread >= 1 {
		return fmt.Errorf("spread must be in range [0, 1)")
	}
	if c.Slippage < 0 || c.Slippage >= 1 {
		return fmt.Errorf("slippage must be in range [0, 1)")
	}
	if c.Fee.IsNegative() {
		return fmt.Errorf("fee must not be negative")
	}
	if c.QuoteFailureRate < 0 || c.QuoteFailureRate > 1 ||
		c.ExecutionFailureRate < 0 || c.ExecutionFailureRate > 1 {
		return fmt.Errorf("failure rates must be in range [0, 1]")
	}
	return nil
}

// Raydium returns the default configuration of the simulated Raydium venue.
func Raydium() Config {
	return Config{
		Name:             "raydium",
		BasePrice:        decimal.NewFromInt(1),
		Spread:           0.02,
		Fee:              decimal.RequireFromString("0.0025"),
		Slippage:         0.005,
		QuoteLatency:     200 * time.Millisecond,
		BuildLatency:     100 * time.Millisecond,
		ExecutionLatency: 2 * time.Second,
	}
}

// Meteora returns the default configuration of the simulated Meteora venue,
// which quotes using tokenIn as base asset.
func Meteora() Config {
	return Config{
		Name:             "meteora",
		BasePrice:        decimal.NewFromInt(1),
		Spread:           0.03,
		Fee:              decimal.RequireFromString("0.002"),
		Slippage:         0.005,
		QuoteInTokenIn:   true,
		QuoteLatency:     200 * time.Millisecond,
		BuildLatency:     100 * time.Millisecond,
		ExecutionLatency: 2 * time.Second,
	}
}
