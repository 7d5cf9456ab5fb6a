package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatusUpdate is the notification pushed to the subscriber of an order at
// every transition.
type StatusUpdate struct {
	OrderID   string            `json:"orderId"`
	Status    OrderStatus       `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Data      *StatusUpdateData `json:"data,omitempty"`
}

// StatusUpdateData holds the optional details of a StatusUpdate.
type StatusUpdateData struct {
	TxHash        string           `json:"txHash,omitempty"`
	Error         string           `json:"error,omitempty"`
	Dex           string           `json:"dex,omitempty"`
	RoutingReason string           `json:"routingReason,omitempty"`
	ExecutedPrice *decimal.Decimal `json:"executedPrice,omitempty"`
	AmountOut     *decimal.Decimal `json:"amountOut,omitempty"`
	RouteResult   *RouteResult     `json:"routeResult,omitempty"`
}

// NewStatusUpdate returns the update describing the current state of the
// given order.
func NewStatusUpdate(order *Order) StatusUpdate {
	update := StatusUpdate{
		OrderID:   order.ID,
		Status:    order.Status,
		Timestamp: order.UpdatedAt,
	}

	data := &StatusUpdateData{
		TxHash:        order.TxHash,
		Error:         order.ErrorMessage,
		Dex:           order.Dex,
		RoutingReason: order.RoutingReason,
	}
	if !order.ExecutedPrice.IsZero() {
		price := order.ExecutedPrice
		data.ExecutedPrice = &price
	}
	if !order.AmountOut.IsZero() {
		amount := order.AmountOut
		data.AmountOut = &amount
	}
	if *data != (StatusUpdateData{}) {
		update.Data = data
	}
	return update
}
