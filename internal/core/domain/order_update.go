package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderUpdate holds the optional fields that can be changed along with a
// status transition. A nil field keeps the value previously stored for the
// order; a non-nil one overwrites it, even if pointing to a zero value.
// Status and UpdatedAt are not part of the update: they are always
// overwritten, and RetryCount is incremented only when moving to FAILED.
type OrderUpdate struct {
	TxHash        *string
	ExecutedAt    *time.Time
	ErrorMessage  *string
	Dex           *string
	RoutingReason *string
	ExecutedPrice *decimal.Decimal
	AmountOut     *decimal.Decimal
}

func (u OrderUpdate) mergeInto(o *Order) {
	if u.TxHash != nil {
		o.TxHash = *u.TxHash
	}
	if u.ExecutedAt != nil {
		executedAt := u.ExecutedAt.UTC()
		o.ExecutedAt = &executedAt
	}
	if u.ErrorMessage != nil {
		o.ErrorMessage = *u.ErrorMessage
	}
	if u.Dex != nil {
		o.Dex = *u.Dex
	}
	if u.RoutingReason != nil {
		o.RoutingReason = *u.RoutingReason
	}
	if u.ExecutedPrice != nil {
		o.ExecutedPrice = *u.ExecutedPrice
	}
	if u.AmountOut != nil {
		o.AmountOut = *u.AmountOut
	}
}

// WithTxHash sets the transaction hash field of the update.
func (u OrderUpdate) WithTxHash(txHash string) OrderUpdate {
	u.TxHash = &txHash
	return u
}

// WithExecutedAt sets the execution time field of the update.
func (u OrderUpdate) WithExecutedAt(t time.Time) OrderUpdate {
	u.ExecutedAt = &t
	return u
}

// WithError sets the error message field of the update.
func (u OrderUpdate) WithError(msg string) OrderUpdate {
	u.ErrorMessage = &msg
	return u
}

// WithDex sets the selected venue field of the update.
func (u OrderUpdate) WithDex(dex string) OrderUpdate {
	u.Dex = &dex
	return u
}

// WithRoutingReason sets the routing justification field of the update.
func (u OrderUpdate) WithRoutingReason(reason string) OrderUpdate {
	u.RoutingReason = &reason
	return u
}

// WithExecution sets the executed price and amount out fields of the update.
func (u OrderUpdate) WithExecution(price, amountOut decimal.Decimal) OrderUpdate {
	u.ExecutedPrice = &price
	u.AmountOut = &amountOut
	return u
}
