package httpinterface

import (
	"time"

	"github.com/tdex-network/tdex-execd/internal/core/domain"
)

type submitOrderRequest struct {
	Type     string `json:"type,omitempty"`
	TokenIn  string `json:"tokenIn"`
	TokenOut string `json:"tokenOut"`
	AmountIn int64  `json:"amountIn"`
}

type submitOrderResponse struct {
	OrderID string             `json:"orderId"`
	Status  domain.OrderStatus `json:"status"`
}

type orderInfo struct {
	ID            string             `json:"id"`
	Type          domain.OrderType   `json:"type"`
	TokenIn       string             `json:"tokenIn"`
	TokenOut      string             `json:"tokenOut"`
	AmountIn      int64              `json:"amountIn"`
	Status        domain.OrderStatus `json:"status"`
	RetryCount    int                `json:"retryCount"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
	ExecutedAt    *time.Time         `json:"executedAt,omitempty"`
	TxHash        string             `json:"txHash,omitempty"`
	ExecutedPrice string             `json:"executedPrice,omitempty"`
	AmountOut     string             `json:"amountOut,omitempty"`
	ErrorMessage  string             `json:"errorMessage,omitempty"`
	Dex           string             `json:"dex,omitempty"`
	RoutingReason string             `json:"routingReason,omitempty"`
}

func newOrderInfo(o *domain.Order) orderInfo {
	info := orderInfo{
		ID:            o.ID,
		Type:          o.Type,
		TokenIn:       o.TokenIn,
		TokenOut:      o.TokenOut,
		AmountIn:      o.AmountIn,
		Status:        o.Status,
		RetryCount:    o.RetryCount,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
		ExecutedAt:    o.ExecutedAt,
		TxHash:        o.TxHash,
		ErrorMessage:  o.ErrorMessage,
		Dex:           o.Dex,
		RoutingReason: o.RoutingReason,
	}
	if !o.ExecutedPrice.IsZero() {
		info.ExecutedPrice = o.ExecutedPrice.String()
	}
	if !o.AmountOut.IsZero() {
		info.AmountOut = o.AmountOut.String()
	}
	return info
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status string `json:"status"`
}
