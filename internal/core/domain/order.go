package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderType represents the kind of order requested by a trader.
type OrderType string

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
	OrderTypeSniper OrderType = "sniper"
)

// OrderStatus represents the different statuses that an order can assume
// during its lifecycle.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusRouting   OrderStatus = "routing"
	OrderStatusBuilding  OrderStatus = "building"
	OrderStatusSubmitted OrderStatus = "submitted"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusFailed    OrderStatus = "failed"
)

var orderStatuses = map[OrderStatus]struct{}{
	OrderStatusPending:   {},
	OrderStatusRouting:   {},
	OrderStatusBuilding:  {},
	OrderStatusSubmitted: {},
	OrderStatusConfirmed: {},
	OrderStatusFailed:    {},
}

// allowedTransitions lists, for every status, those it can be reached from.
// A FAILED order can be brought back to ROUTING by the queue's job retry and
// a transient status can be re-entered as ROUTING when a stalled job is
// re-run. CONFIRMED is final.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusRouting: {
		OrderStatusPending, OrderStatusRouting, OrderStatusBuilding,
		OrderStatusSubmitted, OrderStatusFailed,
	},
	OrderStatusBuilding:  {OrderStatusRouting},
	OrderStatusSubmitted: {OrderStatusBuilding},
	OrderStatusConfirmed: {OrderStatusSubmitted},
	OrderStatusFailed: {
		OrderStatusPending, OrderStatusRouting, OrderStatusBuilding,
		OrderStatusSubmitted,
	},
}

// IsValid returns whether the status is one of the known ones.
func (s OrderStatus) IsValid() bool {
	_, ok := orderStatuses[s]
	return ok
}

// IsTerminal returns whether no further transition occurs without an external
// re-enqueue.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusConfirmed || s == OrderStatusFailed
}

// CanTransitionTo returns whether moving from s to next is a legal step of the
// order lifecycle.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, from := range allowedTransitions[next] {
		if from == s {
			return true
		}
	}
	return false
}

// Order is the data structure representing a unit of requested token
// exchange with a tracked lifecycle status.
type Order struct {
	ID            string
	Type          OrderType
	TokenIn       string
	TokenOut      string
	AmountIn      int64
	Status        OrderStatus
	RetryCount    int
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ExecutedAt    *time.Time
	TxHash        string
	ExecutedPrice decimal.Decimal
	AmountOut     decimal.Decimal
	ErrorMessage  string
	Dex           string
	RoutingReason string
}

// NewMarketOrder returns a PENDING market order with a new id and timestamps
// set to now.
func NewMarketOrder(tokenIn, tokenOut string, amountIn int64) *Order {
	return NewOrder(OrderTypeMarket, tokenIn, tokenOut, amountIn)
}

// NewOrder returns a PENDING order of the given type.
func NewOrder(
	orderType OrderType, tokenIn, tokenOut string, amountIn int64,
) *Order {
	now := time.Now().UTC()
	if orderType == "" {
		orderType = OrderTypeMarket
	}
	return &Order{
		ID:        uuid.New().String(),
		Type:      orderType,
		TokenIn:   tokenIn,
		TokenOut:  tokenOut,
		AmountIn:  amountIn,
		Status:    OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsPending returns whether the order has not been picked up yet.
func (o *Order) IsPending() bool {
	return o.Status == OrderStatusPending
}

// IsConfirmed returns whether the order has been executed.
func (o *Order) IsConfirmed() bool {
	return o.Status == OrderStatusConfirmed
}

// IsFailed returns whether the last attempt to execute the order failed.
func (o *Order) IsFailed() bool {
	return o.Status == OrderStatusFailed
}

// IsTerminal returns whether the order is either CONFIRMED or FAILED.
func (o *Order) IsTerminal() bool {
	return o.Status.IsTerminal()
}

// Apply moves the order to the given status and merges the provided update
// into the record. It fails if the transition is not part of the lifecycle.
func (o *Order) Apply(status OrderStatus, update OrderUpdate) error {
	if !status.IsValid() {
		return ErrInvalidOrderStatus
	}
	if !o.Status.CanTransitionTo(status) {
		return &TransitionError{OrderID: o.ID, From: o.Status, To: status}
	}

	update.mergeInto(o)
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	if status == OrderStatusFailed {
		o.RetryCount++
	}
	return nil
}
