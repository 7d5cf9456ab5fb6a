package order

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-execd/internal/core/application/execution"
	"github.com/tdex-network/tdex-execd/internal/core/domain"
	"github.com/tdex-network/tdex-execd/internal/core/ports"
)

// SubmitOrderRequest holds the fields provided by a trader.
type SubmitOrderRequest struct {
	Type     domain.OrderType
	TokenIn  string
	TokenOut string
	AmountIn int64
}

// Service is the entry point for submitting orders and observing them.
type Service struct {
	repo     domain.OrderRepository
	queue    ports.JobQueue
	notifier ports.StatusNotifier
}

func NewService(
	repo domain.OrderRepository, queue ports.JobQueue,
	notifier ports.StatusNotifier,
) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("missing order repository")
	}
	if queue == nil {
		return nil, fmt.Errorf("missing job queue")
	}
	if notifier == nil {
		return nil, fmt.Errorf("missing status notifier")
	}
	return &Service{repo, queue, notifier}, nil
}

// SubmitOrder validates the request, stores a new PENDING order and queues
// it for execution. Invalid requests are rejected with a ValidationError
// and leave no trace.
func (s *Service) SubmitOrder(
	ctx context.Context, req SubmitOrderRequest,
) (*domain.Order, error) {
	order := domain.NewOrder(req.Type, req.TokenIn, req.TokenOut, req.AmountIn)
	if ok, reason := execution.ValidateMarketOrder(*order); !ok {
		return nil, &domain.ValidationError{Reason: reason}
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	if err := s.queue.Enqueue(ctx, *order); err != nil {
		log.WithError(err).WithField("order_id", order.ID).Warn(
			"order: failed to enqueue order",
		)
		if _, err := s.repo.UpdateOrderStatus(
			ctx, order.ID, domain.OrderStatusFailed,
			domain.OrderUpdate{}.WithError(err.Error()),
		); err != nil {
			log.WithError(err).WithField("order_id", order.ID).Warn(
				"order: failed to mark order as failed",
			)
		}
		return nil, fmt.Errorf("failed to enqueue order: %w", err)
	}

	log.WithField("order_id", order.ID).Debugf(
		"order: accepted %s order %d %s -> %s",
		order.Type, order.AmountIn, order.TokenIn, order.TokenOut,
	)
	return order, nil
}

// GetOrder returns the persisted order with the given id.
func (s *Service) GetOrder(
	ctx context.Context, orderID string,
) (*domain.Order, error) {
	return s.repo.GetOrder(ctx, orderID)
}

// Subscribe attaches a live channel to the order.
func (s *Service) Subscribe(orderID string, channel ports.StatusChannel) error {
	return s.notifier.Subscribe(orderID, channel)
}

func (s *Service) QueueStats() ports.QueueStats {
	return s.queue.Stats()
}

func (s *Service) PauseQueue() {
	s.queue.Pause()
}

func (s *Service) ResumeQueue() {
	s.queue.Resume()
}
