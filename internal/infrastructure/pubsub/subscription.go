package pubsub

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/tdex-network/tdex-execd/internal/core/domain"
)

// AnyTopic subscribes an endpoint to every terminal status.
const AnyTopic = "*"

// Subscription is an endpoint notified of the orders reaching the status
// named by Topic.
type Subscription struct {
	ID       string `json:"id"`
	Topic    string `json:"topic"`
	Endpoint string `json:"endpoint"`
	Secret   string `json:"secret"`
}

func NewSubscription(topic, endpoint, secret string) (*Subscription, error) {
	topic = strings.ToLower(strings.TrimSpace(topic))
	if len(topic) <= 0 {
		return nil, fmt.Errorf("missing topic")
	}
	if topic != AnyTopic {
		status := domain.OrderStatus(topic)
		if !status.IsValid() || !status.IsTerminal() {
			return nil, fmt.Errorf("invalid topic %s, must be a terminal status", topic)
		}
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("invalid webhook endpoint, must be a valid URI")
	}
	id := uuid.New().String()
	return &Subscription{id, topic, endpoint, secret}, nil
}

func (s *Subscription) Matches(status domain.OrderStatus) bool {
	return s.Topic == AnyTopic || s.Topic == string(status)
}

func (s *Subscription) IsSecured() bool {
	return len(s.Secret) > 0
}
