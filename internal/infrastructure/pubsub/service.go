package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/tdex-network/tdex-execd/internal/core/domain"
	"github.com/tdex-network/tdex-execd/internal/core/ports"
	"github.com/tdex-network/tdex-execd/pkg/circuitbreaker"
	"golang.org/x/sync/errgroup"
)

const DefaultRequestTimeout = 15 * time.Second

// Service delivers terminal order updates to webhook endpoints.
type Service interface {
	ports.Publisher
	Subscribe(topic, endpoint, secret string) (string, error)
	Unsubscribe(id string) error
	ListSubscriptionsForTopic(topic string) []Subscription
}

type service struct {
	lock       sync.RWMutex
	subs       map[string]Subscription
	httpClient *client
	cb         *gobreaker.CircuitBreaker
}

func NewService(requestTimeout time.Duration) Service {
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}
	return &service{
		subs:       make(map[string]Subscription),
		httpClient: newHTTPClient(requestTimeout),
		cb:         circuitbreaker.NewCircuitBreaker("webhook"),
	}
}

func (ws *service) Subscribe(topic, endpoint, secret string) (string, error) {
	sub, err := NewSubscription(topic, endpoint, secret)
	if err != nil {
		return "", err
	}

	ws.lock.Lock()
	defer ws.lock.Unlock()

	for _, s := range ws.subs {
		if s.Topic == sub.Topic && s.Endpoint == sub.Endpoint {
			return s.ID, nil
		}
	}
	ws.subs[sub.ID] = *sub
	return sub.ID, nil
}

func (ws *service) Unsubscribe(id string) error {
	ws.lock.Lock()
	defer ws.lock.Unlock()

	if _, ok := ws.subs[id]; !ok {
		return fmt.Errorf("webhook not found")
	}
	delete(ws.subs, id)
	return nil
}

func (ws *service) ListSubscriptionsForTopic(topic string) []Subscription {
	ws.lock.RLock()
	defer ws.lock.RUnlock()

	subs := make([]Subscription, 0)
	for _, s := range ws.subs {
		if s.Topic == topic || s.Topic == AnyTopic {
			subs = append(subs, s)
		}
	}
	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].ID < subs[j].ID
	})
	return subs
}

func (ws *service) Publish(update domain.StatusUpdate) error {
	subs := ws.ListSubscriptionsForTopic(string(update.Status))
	if len(subs) <= 0 {
		return nil
	}

	payload, err := json.Marshal(update)
	if err != nil {
		return err
	}

	eg := &errgroup.Group{}
	for i := range subs {
		sub := subs[i]
		eg.Go(func() error {
			if err := ws.doRequest(context.Background(), sub, update.OrderID, payload); err != nil {
				log.WithError(err).WithField("endpoint", sub.Endpoint).Debug(
					"pubsub: webhook delivery failed",
				)
				return err
			}
			return nil
		})
	}
	return eg.Wait()
}

func (ws *service) doRequest(
	ctx context.Context, sub Subscription, orderID string, payload []byte,
) error {
	_, err := circuitbreaker.Execute(ws.cb, func() (struct{}, error) {
		headers := map[string]string{
			"Content-Type": "application/json",
		}
		if sub.IsSecured() {
			token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
				Subject:  orderID,
				IssuedAt: time.Now().Unix(),
			})
			tokenString, err := token.SignedString([]byte(sub.Secret))
			if err != nil {
				return struct{}{}, err
			}
			headers["Authorization"] = fmt.Sprintf("Bearer %s", tokenString)
		}

		status, resp, err := ws.httpClient.post(ctx, sub.Endpoint, payload, headers)
		if err != nil {
			return struct{}{}, err
		}
		if status < 200 || status >= 300 {
			return struct{}{}, fmt.Errorf("endpoint replied with %d: %s", status, resp)
		}
		return struct{}{}, nil
	})
	return err
}
