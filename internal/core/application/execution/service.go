package execution

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-execd/internal/core/domain"
	"github.com/tdex-network/tdex-execd/internal/core/ports"
)

// Router selects the venue for an order and gives access to it.
type Router interface {
	Route(ctx context.Context, order domain.Order) (*domain.RouteResult, error)
	Venue(name string) (ports.Venue, bool)
}

// Service drives an order through its lifecycle:
// PENDING -> ROUTING -> BUILDING -> SUBMITTED -> CONFIRMED | FAILED.
// Every transition is persisted and then broadcast.
type Service struct {
	repo      domain.OrderRepository
	router    Router
	notifier  ports.StatusNotifier
	publisher ports.Publisher
	metrics   ports.Metrics
}

// NewService returns an execution engine. The publisher and metrics are
// optional.
func NewService(
	repo domain.OrderRepository,
	router Router,
	notifier ports.StatusNotifier,
	publisher ports.Publisher,
	metrics ports.Metrics,
) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("missing order repository")
	}
	if router == nil {
		return nil, fmt.Errorf("missing router")
	}
	if notifier == nil {
		return nil, fmt.Errorf("missing status notifier")
	}
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	return &Service{repo, router, notifier, publisher, metrics}, nil
}

// ProcessOrder runs the order to a terminal status. Any failure is persisted
// as FAILED, broadcast and returned, so that the caller can decide whether
// to run the whole order again.
func (s *Service) ProcessOrder(ctx context.Context, order domain.Order) error {
	current, err := s.repo.GetOrder(ctx, order.ID)
	if err != nil {
		return err
	}
	if current.IsConfirmed() {
		log.WithField("order_id", order.ID).Debug(
			"execution: order already confirmed, skipping",
		)
		return nil
	}

	logger := log.WithField("order_id", order.ID)

	// A re-run starts clean of the error left by the previous attempt.
	if _, err := s.transition(
		ctx, order.ID, domain.OrderStatusRouting,
		domain.OrderUpdate{}.WithError(""), nil,
	); err != nil {
		return s.fail(ctx, order.ID, err)
	}

	route, err := s.router.Route(ctx, order)
	if err != nil {
		return s.fail(ctx, order.ID, err)
	}
	logger.Debugf("execution: %s", route.Reason)

	venue, ok := s.router.Venue(route.Venue)
	if !ok {
		return s.fail(ctx, order.ID, &domain.RoutingError{
			Err: fmt.Errorf("selected venue %s is not available", route.Venue),
		})
	}

	building, err := s.transition(
		ctx, order.ID, domain.OrderStatusBuilding,
		domain.OrderUpdate{}.WithDex(route.Venue).WithRoutingReason(route.Reason),
		route,
	)
	if err != nil {
		return s.fail(ctx, order.ID, err)
	}

	if err := venue.BuildTransaction(ctx, *building); err != nil {
		return s.fail(ctx, order.ID, fmt.Errorf("failed to build transaction: %w", err))
	}

	submitted, err := s.transition(
		ctx, order.ID, domain.OrderStatusSubmitted, domain.OrderUpdate{}, nil,
	)
	if err != nil {
		return s.fail(ctx, order.ID, err)
	}

	result, err := venue.Execute(ctx, *submitted)
	if err != nil {
		return s.fail(ctx, order.ID, &domain.ExecutionError{
			Venue: route.Venue, Reason: err.Error(),
		})
	}
	if result == nil || !result.Success {
		reason := "unknown error"
		if result != nil && result.Error != "" {
			reason = result.Error
		}
		return s.fail(ctx, order.ID, &domain.ExecutionError{
			Venue: route.Venue, Reason: reason,
		})
	}

	confirmed, err := s.transition(
		ctx, order.ID, domain.OrderStatusConfirmed,
		domain.OrderUpdate{}.
			WithTxHash(result.TxHash).
			WithExecutedAt(time.Now()).
			WithExecution(result.ExecutedPrice, result.AmountOut),
		nil,
	)
	if err != nil {
		return s.fail(ctx, order.ID, err)
	}

	logger.Infof(
		"execution: order confirmed on %s with tx %s", confirmed.Dex, confirmed.TxHash,
	)
	s.publish(*confirmed)
	return nil
}

func (s *Service) transition(
	ctx context.Context, orderID string, status domain.OrderStatus,
	update domain.OrderUpdate, route *domain.RouteResult,
) (*domain.Order, error) {
	order, err := s.repo.UpdateOrderStatus(ctx, orderID, status, update)
	if err != nil {
		return nil, err
	}
	s.metrics.OrderTransition(status)

	statusUpdate := domain.NewStatusUpdate(order)
	if route != nil {
		if statusUpdate.Data == nil {
			statusUpdate.Data = &domain.StatusUpdateData{}
		}
		statusUpdate.Data.RouteResult = route
	}
	s.notifier.Broadcast(statusUpdate)
	return order, nil
}

// fail persists FAILED with the error message, broadcasts it and returns
// the original error. The update is committed even if ctx is canceled.
func (s *Service) fail(ctx context.Context, orderID string, cause error) error {
	logger := log.WithField("order_id", orderID)
	logger.WithError(cause).Warn("execution: order failed")

	failed, err := s.transition(
		context.WithoutCancel(ctx), orderID, domain.OrderStatusFailed,
		domain.OrderUpdate{}.WithError(cause.Error()), nil,
	)
	if err != nil {
		var transitionErr *domain.TransitionError
		if errors.As(err, &transitionErr) {
			// Already FAILED, i.e. the failure happened while leaving FAILED.
			logger.WithError(err).Debug("execution: order not moved to failed")
			return cause
		}
		logger.WithError(err).Error("execution: failed to persist failed status")
		return fmt.Errorf("%w (persisting failed status: %s)", cause, err)
	}

	s.publish(*failed)
	return cause
}

func (s *Service) publish(order domain.Order) {
	if s.publisher == nil {
		return
	}
	update := domain.NewStatusUpdate(&order)
	go func() {
		if err := s.publisher.Publish(update); err != nil {
			log.WithError(err).WithField("order_id", order.ID).Warn(
				"execution: failed to publish terminal status",
			)
		}
	}()
}
