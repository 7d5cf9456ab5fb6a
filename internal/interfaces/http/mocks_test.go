package httpinterface_test

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/tdex-network/tdex-execd/internal/core/application/order"
	"github.com/tdex-network/tdex-execd/internal/core/domain"
	"github.com/tdex-network/tdex-execd/internal/core/ports"
)

// **** OrderService ****

type mockOrderService struct {
	mock.Mock
}

func (m *mockOrderService) SubmitOrder(
	ctx context.Context, req order.SubmitOrderRequest,
) (*domain.Order, error) {
	args := m.Called(req)

	var res *domain.Order
	if a := args.Get(0); a != nil {
		res = a.(*domain.Order)
	}
	return res, args.Error(1)
}

func (m *mockOrderService) GetOrder(
	ctx context.Context, orderID string,
) (*domain.Order, error) {
	args := m.Called(orderID)

	var res *domain.Order
	if a := args.Get(0); a != nil {
		res = a.(*domain.Order)
	}
	return res, args.Error(1)
}

func (m *mockOrderService) Subscribe(
	orderID string, channel ports.StatusChannel,
) error {
	args := m.Called(orderID, channel)
	return args.Error(0)
}

func (m *mockOrderService) QueueStats() ports.QueueStats {
	args := m.Called()
	return args.Get(0).(ports.QueueStats)
}

func (m *mockOrderService) PauseQueue() {
	m.Called()
}

func (m *mockOrderService) ResumeQueue() {
	m.Called()
}
