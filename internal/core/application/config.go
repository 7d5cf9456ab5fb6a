package application

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-execd/internal/core/application/execution"
	"github.com/tdex-network/tdex-execd/internal/core/application/order"
	"github.com/tdex-network/tdex-execd/internal/core/application/routing"
	"github.com/tdex-network/tdex-execd/internal/core/ports"
	"github.com/tdex-network/tdex-execd/internal/infrastructure/fanout"
	"github.com/tdex-network/tdex-execd/internal/infrastructure/queue"
	dbbadger "github.com/tdex-network/tdex-execd/internal/infrastructure/storage/db/badger"
	"github.com/tdex-network/tdex-execd/internal/infrastructure/storage/db/inmemory"
	"github.com/tdex-network/tdex-execd/pkg/retry"
)

const (
	DBBadger   = "badger"
	DBInMemory = "inmemory"
)

var (
	SupportedDBType = map[string]struct{}{
		DBBadger:   {},
		DBInMemory: {},
	}
)

// Config wires together the components of the execution pipeline. Every
// component is built lazily the first time it's requested.
type Config struct {
	DBType   string
	DBConfig interface{}

	Venues            []ports.Venue
	DefaultVenue      string
	QuoteRetryPolicy  retry.Policy
	QueueConfig       queue.Config
	HeartbeatInterval time.Duration
	Publisher         ports.Publisher
	Metrics           ports.Metrics

	repo     ports.RepoManager
	router   *routing.Service
	notifier fanout.Service
	engine   *execution.Service
	queue    *queue.Queue
	order    *order.Service
}

func (c *Config) Validate() error {
	if _, ok := SupportedDBType[c.DBType]; !ok {
		return fmt.Errorf("unsupported db type %s", c.DBType)
	}
	if c.Metrics == nil {
		c.Metrics = ports.NoopMetrics{}
	}
	if _, err := c.orderService(); err != nil {
		return err
	}
	return nil
}

func (c *Config) RepoManager() ports.RepoManager {
	svc, _ := c.repoManager()
	return svc
}

func (c *Config) Notifier() fanout.Service {
	svc, _ := c.statusNotifier()
	return svc
}

func (c *Config) Queue() *queue.Queue {
	svc, _ := c.jobQueue()
	return svc
}

func (c *Config) OrderService() *order.Service {
	svc, _ := c.orderService()
	return svc
}

// Start restores the persisted jobs and starts the background processes.
func (c *Config) Start(ctx context.Context) error {
	if err := c.Validate(); err != nil {
		return err
	}

	log.Infof(
		"worst case of %d quote rounds per order",
		retry.WorstCaseAttempts(c.QueueConfig.RetryPolicy, c.QuoteRetryPolicy),
	)

	c.notifier.Start()
	return c.queue.Start(ctx)
}

// Stop waits for in-flight orders and releases every resource, the
// opposite order of Start.
func (c *Config) Stop() {
	if c.queue != nil {
		c.queue.Close()
	}
	if c.notifier != nil {
		c.notifier.Stop()
	}
	if c.repo != nil {
		c.repo.Close()
	}
}

func (c *Config) repoManager() (ports.RepoManager, error) {
	if c.repo == nil {
		switch c.DBType {
		case DBBadger:
			datadir, _ := c.DBConfig.(string)
			repoManager, err := dbbadger.NewRepoManager(datadir, log.New())
			if err != nil {
				return nil, err
			}
			c.repo = repoManager
		case DBInMemory:
			c.repo = inmemory.NewRepoManager()
		default:
			return nil, fmt.Errorf("unsupported db type %s", c.DBType)
		}
	}
	return c.repo, nil
}

func (c *Config) routingService() (*routing.Service, error) {
	if c.router == nil {
		router, err := routing.NewService(
			c.Venues, c.DefaultVenue, c.QuoteRetryPolicy, c.Metrics,
		)
		if err != nil {
			return nil, err
		}
		c.router = router
	}
	return c.router, nil
}

func (c *Config) statusNotifier() (fanout.Service, error) {
	if c.notifier == nil {
		repo, err := c.repoManager()
		if err != nil {
			return nil, err
		}
		metrics := c.Metrics
		notifier, err := fanout.NewService(
			repo.OrderRepository(), c.HeartbeatInterval,
			fanout.WithEvictionHook(func(string) {
				metrics.SubscriberEvicted()
			}),
		)
		if err != nil {
			return nil, err
		}
		c.notifier = notifier
	}
	return c.notifier, nil
}

func (c *Config) executionService() (*execution.Service, error) {
	if c.engine == nil {
		repo, err := c.repoManager()
		if err != nil {
			return nil, err
		}
		router, err := c.routingService()
		if err != nil {
			return nil, err
		}
		notifier, err := c.statusNotifier()
		if err != nil {
			return nil, err
		}
		engine, err := execution.NewService(
			repo.OrderRepository(), router, notifier, c.Publisher, c.Metrics,
		)
		if err != nil {
			return nil, err
		}
		c.engine = engine
	}
	return c.engine, nil
}

func (c *Config) jobQueue() (*queue.Queue, error) {
	if c.queue == nil {
		repo, err := c.repoManager()
		if err != nil {
			return nil, err
		}
		engine, err := c.executionService()
		if err != nil {
			return nil, err
		}
		q, err := queue.NewQueue(
			c.QueueConfig, repo.JobRepository(), engine, c.Metrics,
		)
		if err != nil {
			return nil, err
		}
		c.queue = q
	}
	return c.queue, nil
}

func (c *Config) orderService() (*order.Service, error) {
	if c.order == nil {
		repo, err := c.repoManager()
		if err != nil {
			return nil, err
		}
		q, err := c.jobQueue()
		if err != nil {
			return nil, err
		}
		notifier, err := c.statusNotifier()
		if err != nil {
			return nil, err
		}
		svc, err := order.NewService(repo.OrderRepository(), q, notifier)
		if err != nil {
			return nil, err
		}
		c.order = svc
	}
	return c.order, nil
}
