package dbbadger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v3"
	"github.com/tdex-network/tdex-execd/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type orderRepositoryImpl struct {
	store *badgerhold.Store
}

// NewOrderRepositoryImpl returns a new badger OrderRepository implementation.
func NewOrderRepositoryImpl(store *badgerhold.Store) domain.OrderRepository {
	return &orderRepositoryImpl{store}
}

func (r *orderRepositoryImpl) CreateOrder(
	_ context.Context, order *domain.Order,
) error {
	if err := r.store.Insert(order.ID, *order); err != nil {
		if err == badgerhold.ErrKeyExists {
			return domain.ErrOrderAlreadyExists
		}
		return &domain.PersistenceError{Op: "create order", Err: err}
	}
	return nil
}

func (r *orderRepositoryImpl) GetOrder(
	_ context.Context, orderID string,
) (*domain.Order, error) {
	var order domain.Order
	if err := r.store.Get(orderID, &order); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, domain.ErrOrderNotFound
		}
		return nil, &domain.PersistenceError{Op: "get order", Err: err}
	}
	return &order, nil
}

func (r *orderRepositoryImpl) UpdateOrderStatus(
	_ context.Context, orderID string, status domain.OrderStatus,
	update domain.OrderUpdate,
) (*domain.Order, error) {
	var order domain.Order

	err := r.store.Badger().Update(func(tx *badger.Txn) error {
		if err := r.store.TxGet(tx, orderID, &order); err != nil {
			return err
		}
		if err := order.Apply(status, update); err != nil {
			return err
		}
		return r.store.TxUpdate(tx, orderID, order)
	})
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, domain.ErrOrderNotFound
		}
		var transitionErr *domain.TransitionError
		if errors.As(err, &transitionErr) ||
			errors.Is(err, domain.ErrInvalidOrderStatus) {
			return nil, err
		}
		return nil, &domain.PersistenceError{Op: "update order", Err: err}
	}

	return &order, nil
}
