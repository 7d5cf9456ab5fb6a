package domain

import "github.com/shopspring/decimal"

// Quote is a venue's price response for a token pair and amount.
// Price is always normalized to units of tokenOut per unit of tokenIn, while
// RawPrice keeps the value as expressed by the venue.
type Quote struct {
	Venue     string
	Price     decimal.Decimal
	RawPrice  decimal.Decimal
	BaseAsset string
	Fee       decimal.Decimal
}

// RouteResult is the outcome of comparing venue quotes for an order.
type RouteResult struct {
	Venue  string
	Quote  Quote
	Quotes []Quote
	Reason string
}

// ExecutionResult is what a venue returns after executing an order.
type ExecutionResult struct {
	Success       bool
	TxHash        string
	ExecutedPrice decimal.Decimal
	AmountOut     decimal.Decimal
	Error         string
}
