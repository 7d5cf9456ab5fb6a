package fanout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-execd/internal/core/domain"
	"github.com/tdex-network/tdex-execd/internal/core/ports"
)

const (
	numOfShards = 32

	DefaultHeartbeatInterval = 30 * time.Second
)

// subscription binds a live channel to an order. Sends to the same channel
// are serialized by the subscription's lock.
type subscription struct {
	lock       sync.Mutex
	orderID    string
	channel    ports.StatusChannel
	lastStatus domain.OrderStatus
}

type shard struct {
	lock          sync.RWMutex
	subscriptions map[string]*subscription
}

type service struct {
	repo              domain.OrderRepository
	heartbeatInterval time.Duration
	shards            [numOfShards]*shard

	onEvict func(orderID string)

	quit chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// Option customizes the fan-out service.
type Option func(*service)

// WithEvictionHook registers a function called every time a channel is
// evicted from the registry.
func WithEvictionHook(fn func(orderID string)) Option {
	return func(s *service) {
		s.onEvict = fn
	}
}

// Service is the status fan-out registry. It keeps at most one live channel
// per order and probes them periodically once started.
type Service interface {
	ports.StatusNotifier
	Start()
	Stop()
	Count() int
}

// NewService returns a fan-out service reading catch-up snapshots from the
// given repository.
func NewService(
	repo domain.OrderRepository, heartbeatInterval time.Duration,
	opts ...Option,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("missing order repository")
	}
	if heartbeatInterval <= 0 {
		heartbeatInterval = DefaultHeartbeatInterval
	}

	s := &service{
		repo:              repo,
		heartbeatInterval: heartbeatInterval,
		quit:              make(chan struct{}),
	}
	for i := range s.shards {
		s.shards[i] = &shard{subscriptions: make(map[string]*subscription)}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *service) Subscribe(orderID string, channel ports.StatusChannel) error {
	order, err := s.repo.GetOrder(context.Background(), orderID)
	if err != nil {
		return err
	}

	sub := &subscription{orderID: orderID, channel: channel}
	// The new subscription is locked before being published so that any
	// concurrent broadcast is delivered after the catch-up snapshot.
	sub.lock.Lock()
	defer sub.lock.Unlock()

	sh := s.shardFor(orderID)
	sh.lock.Lock()
	prev := sh.subscriptions[orderID]
	sh.subscriptions[orderID] = sub
	sh.lock.Unlock()

	if prev != nil && prev.channel != channel {
		go func() {
			prev.lock.Lock()
			defer prev.lock.Unlock()
			prev.channel.Close()
		}()
	}

	// Re-read the order now that the subscription is visible, so that a
	// transition persisted in between is not lost.
	if latest, err := s.repo.GetOrder(context.Background(), orderID); err == nil {
		order = latest
	}

	if err := s.send(sub, domain.NewStatusUpdate(order)); err != nil {
		s.evict(sub)
		return err
	}
	return nil
}

func (s *service) Broadcast(update domain.StatusUpdate) {
	sh := s.shardFor(update.OrderID)
	sh.lock.RLock()
	sub, ok := sh.subscriptions[update.OrderID]
	sh.lock.RUnlock()
	if !ok {
		return
	}

	sub.lock.Lock()
	defer sub.lock.Unlock()

	if sub.lastStatus == update.Status {
		return
	}
	if err := s.send(sub, update); err != nil {
		log.WithError(err).WithField("order_id", update.OrderID).Debug(
			"fanout: evicting subscriber after failed send",
		)
		s.evict(sub)
	}
}

func (s *service) Start() {
	s.wg.Add(1)
	go s.heartbeat()
}

func (s *service) Stop() {
	s.once.Do(func() {
		close(s.quit)
		s.wg.Wait()

		for _, sub := range s.listSubscriptions() {
			sub.lock.Lock()
			s.evict(sub)
			sub.lock.Unlock()
		}
	})
}

func (s *service) Count() int {
	count := 0
	for _, sh := range s.shards {
		sh.lock.RLock()
		count += len(sh.subscriptions)
		sh.lock.RUnlock()
	}
	return count
}

// send must be called with the subscription's lock held.
func (s *service) send(sub *subscription, update domain.StatusUpdate) error {
	if !sub.channel.IsOpen() {
		return fmt.Errorf("channel closed")
	}
	if err := sub.channel.Send(update); err != nil {
		return err
	}
	sub.lastStatus = update.Status
	return nil
}

// evict removes the subscription from the registry, unless it has already
// been replaced, and closes its channel. It must be called with the
// subscription's lock held.
func (s *service) evict(sub *subscription) {
	sh := s.shardFor(sub.orderID)
	sh.lock.Lock()
	removed := false
	if current, ok := sh.subscriptions[sub.orderID]; ok && current == sub {
		delete(sh.subscriptions, sub.orderID)
		removed = true
	}
	sh.lock.Unlock()

	sub.channel.Close()

	if removed && s.onEvict != nil {
		s.onEvict(sub.orderID)
	}
}

func (s *service) heartbeat() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.quit:
			return
		case <-ticker.C:
			s.probe()
		}
	}
}

func (s *service) probe() {
	evicted := 0
	for _, sub := range s.listSubscriptions() {
		sub.lock.Lock()
		if !sub.channel.IsOpen() || sub.channel.Ping() != nil {
			s.evict(sub)
			evicted++
		}
		sub.lock.Unlock()
	}
	if evicted > 0 {
		log.Debugf("fanout: heartbeat evicted %d dead subscribers", evicted)
	}
}

func (s *service) listSubscriptions() []*subscription {
	subs := make([]*subscription, 0)
	for _, sh := range s.shards {
		sh.lock.RLock()
		for _, sub := range sh.subscriptions {
			subs = append(subs, sub)
		}
		sh.lock.RUnlock()
	}
	return subs
}

func (s *service) shardFor(orderID string) *shard {
	return s.shards[xxhash.Sum64String(orderID)%numOfShards]
}
