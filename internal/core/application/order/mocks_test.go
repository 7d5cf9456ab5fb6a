package order_test

import (
	"sync"

	"github.com/tdex-network/tdex-execd/internal/core/domain"
)

// **** StatusChannel ****

type mockChannel struct {
	lock    sync.Mutex
	updates []domain.StatusUpdate
	closed  bool
}

func (m *mockChannel) Send(update domain.StatusUpdate) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.updates = append(m.updates, update)
	return nil
}

func (m *mockChannel) Ping() error {
	return nil
}

func (m *mockChannel) IsOpen() bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	return !m.closed
}

func (m *mockChannel) Close() error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.closed = true
	return nil
}

func (m *mockChannel) statuses() []domain.OrderStatus {
	m.lock.Lock()
	defer m.lock.Unlock()
	statuses := make([]domain.OrderStatus, 0, len(m.updates))
	for _, u := range m.updates {
		statuses = append(statuses, u.Status)
	}
	return statuses
}

func (m *mockChannel) last() domain.StatusUpdate {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.updates[len(m.updates)-1]
}
