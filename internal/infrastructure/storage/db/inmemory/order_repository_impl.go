package inmemory

import (
	"context"
	"sync"

	"github.com/tdex-network/tdex-execd/internal/core/domain"
)

type orderRepositoryImpl struct {
	orders map[string]domain.Order
	locker *sync.RWMutex
}

// NewOrderRepositoryImpl returns a new inmemory OrderRepository
// implementation.
func NewOrderRepositoryImpl() domain.OrderRepository {
	return &orderRepositoryImpl{
		orders: make(map[string]domain.Order),
		locker: &sync.RWMutex{},
	}
}

func (r *orderRepositoryImpl) CreateOrder(
	_ context.Context, order *domain.Order,
) error {
	r.locker.Lock()
	defer r.locker.Unlock()

	if _, ok := r.orders[order.ID]; ok {
		return domain.ErrOrderAlreadyExists
	}
	r.orders[order.ID] = *order
	return nil
}

func (r *orderRepositoryImpl) GetOrder(
	_ context.Context, orderID string,
) (*domain.Order, error) {
	r.locker.RLock()
	defer r.locker.RUnlock()

	order, ok := r.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return &order, nil
}

func (r *orderRepositoryImpl) UpdateOrderStatus(
	_ context.Context, orderID string, status domain.OrderStatus,
	update domain.OrderUpdate,
) (*domain.Order, error) {
	r.locker.Lock()
	defer r.locker.Unlock()

	order, ok := r.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	if err := order.Apply(status, update); err != nil {
		return nil, err
	}
	r.orders[orderID] = order

	return &order, nil
}
