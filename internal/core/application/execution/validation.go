package execution

import (
	"strings"

	"github.com/tdex-network/tdex-execd/internal/core/domain"
)

const (
	ReasonMissingTokens   = "Input and output tokens are required"
	ReasonSameTokens      = "Input and output tokens must be different"
	ReasonInvalidAmount   = "Amount must be greater than zero"
	ReasonUnsupportedType = "Only market orders are supported"
)

// ValidateMarketOrder checks whether the order can be accepted, returning
// the reason of the rejection if not.
func ValidateMarketOrder(order domain.Order) (bool, string) {
	tokenIn := strings.TrimSpace(order.TokenIn)
	tokenOut := strings.TrimSpace(order.TokenOut)

	if tokenIn == "" || tokenOut == "" {
		return false, ReasonMissingTokens
	}
	if tokenIn == tokenOut {
		return false, ReasonSameTokens
	}
	if order.AmountIn <= 0 {
		return false, ReasonInvalidAmount
	}
	if order.Type != domain.OrderTypeMarket {
		return false, ReasonUnsupportedType
	}
	return true, ""
}
