package execution_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/tdex-network/tdex-execd/internal/core/domain"
	"github.com/tdex-network/tdex-execd/internal/core/ports"
)

// **** Router ****

type mockRouter struct {
	mock.Mock
	venues map[string]ports.Venue
}

func (m *mockRouter) Route(
	ctx context.Context, order domain.Order,
) (*domain.RouteResult, error) {
	args := m.Called(order.ID)

	var res *domain.RouteResult
	if a := args.Get(0); a != nil {
		res = a.(*domain.RouteResult)
	}
	return res, args.Error(1)
}

func (m *mockRouter) Venue(name string) (ports.Venue, bool) {
	v, ok := m.venues[name]
	return v, ok
}

// **** Venue ****

type mockVenue struct {
	mock.Mock
	name string
}

func (m *mockVenue) Name() string {
	return m.name
}

func (m *mockVenue) Quote(
	ctx context.Context, tokenIn, tokenOut string, amount int64,
) (*ports.VenueQuote, error) {
	args := m.Called(tokenIn, tokenOut, amount)

	var res *ports.VenueQuote
	if a := args.Get(0); a != nil {
		res = a.(*ports.VenueQuote)
	}
	return res, args.Error(1)
}

func (m *mockVenue) BuildTransaction(ctx context.Context, order domain.Order) error {
	args := m.Called(order.ID)
	return args.Error(0)
}

func (m *mockVenue) Execute(
	ctx context.Context, order domain.Order,
) (*domain.ExecutionResult, error) {
	args := m.Called(order.ID)

	var res *domain.ExecutionResult
	if a := args.Get(0); a != nil {
		res = a.(*domain.ExecutionResult)
	}
	return res, args.Error(1)
}

// **** Notifier ****

type mockNotifier struct {
	lock    sync.Mutex
	updates []domain.StatusUpdate
}

func (m *mockNotifier) Subscribe(string, ports.StatusChannel) error {
	return nil
}

func (m *mockNotifier) Broadcast(update domain.StatusUpdate) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.updates = append(m.updates, update)
}

func (m *mockNotifier) statuses() []domain.OrderStatus {
	m.lock.Lock()
	defer m.lock.Unlock()
	res := make([]domain.OrderStatus, 0, len(m.updates))
	for _, u := range m.updates {
		res = append(res, u.Status)
	}
	return res
}

func (m *mockNotifier) last() domain.StatusUpdate {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.updates[len(m.updates)-1]
}

// **** Publisher ****

type mockPublisher struct {
	lock      sync.Mutex
	published []domain.StatusUpdate
}

func (m *mockPublisher) Publish(update domain.StatusUpdate) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.published = append(m.published, update)
	return nil
}

func (m *mockPublisher) statuses() []domain.OrderStatus {
	m.lock.Lock()
	defer m.lock.Unlock()
	res := make([]domain.OrderStatus, 0, len(m.published))
	for _, u := range m.published {
		res = append(res, u.Status)
	}
	return res
}
