package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-execd/internal/config"
	"github.com/tdex-network/tdex-execd/internal/core/application"
	"github.com/tdex-network/tdex-execd/internal/core/ports"
	"github.com/tdex-network/tdex-execd/internal/infrastructure/metrics"
	"github.com/tdex-network/tdex-execd/internal/infrastructure/pubsub"
	"github.com/tdex-network/tdex-execd/internal/infrastructure/queue"
	"github.com/tdex-network/tdex-execd/internal/infrastructure/venue"
	"github.com/tdex-network/tdex-execd/internal/infrastructure/venue/mock"
	httpinterface "github.com/tdex-network/tdex-execd/internal/interfaces/http"
	"github.com/tdex-network/tdex-execd/pkg/stats"
)

func main() {
	if err := config.InitConfig(); err != nil {
		log.WithError(err).Fatal("failed to load config")
	}

	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var metricsSvc *metrics.Service
	var appMetrics ports.Metrics = ports.NoopMetrics{}
	if config.GetBool(config.EnableMetricsKey) {
		metricsSvc = metrics.NewService()
		appMetrics = metricsSvc
	}

	if config.GetBool(config.EnableProfilerKey) {
		var gatherer prometheus.Gatherer
		if metricsSvc != nil {
			gatherer = metricsSvc.Registry()
		}
		interval := time.Duration(config.GetInt(config.StatsIntervalKey)) * time.Second
		dumpPath := filepath.Join(
			config.GetDatadir(), config.ProfilerLocation, "metrics",
		)
		stats.EnableMemoryStatistics(ctx, interval, gatherer, dumpPath)
	}

	venues, err := newVenues()
	if err != nil {
		log.WithError(err).Fatal("failed to initialize venues")
	}

	publisher, err := newPublisher()
	if err != nil {
		log.WithError(err).Fatal("failed to initialize webhooks")
	}

	queueCfg := queue.Config{
		Concurrency:     config.GetInt(config.WorkerConcurrencyKey),
		RateLimit:       config.GetInt(config.RateLimitMaxKey),
		RateWindow:      config.GetDuration(config.RateLimitWindowKey),
		RetryPolicy:     config.GetJobRetryPolicy(),
		MaxStalledCount: config.GetInt(config.MaxStalledCountKey),
		JobTimeout:      config.GetDuration(config.JobTimeoutKey),
	}

	appConfig := &application.Config{
		DBType:            config.GetString(config.DBTypeKey),
		DBConfig:          config.GetDbDir(),
		Venues:            venues,
		DefaultVenue:      config.GetString(config.DefaultVenueKey),
		QuoteRetryPolicy:  config.GetQuoteRetryPolicy(),
		QueueConfig:       queueCfg,
		HeartbeatInterval: config.GetDuration(config.HeartbeatIntervalKey),
		Publisher:         publisher,
		Metrics:           appMetrics,
	}
	if err := appConfig.Start(ctx); err != nil {
		log.WithError(err).Fatal("failed to start execution pipeline")
	}
	defer appConfig.Stop()

	opts := httpinterface.ServiceOpts{
		Port:           config.GetInt(config.HTTPListeningPortKey),
		AllowedOrigins: config.GetStringSlice(config.AllowedOriginsKey),
		OrderSvc:       appConfig.OrderService(),
	}
	if metricsSvc != nil {
		opts.MetricsHandler = metricsSvc.Handler()
	}

	svc, err := httpinterface.NewService(opts)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize http interface")
	}
	if err := svc.Start(); err != nil {
		log.WithError(err).Fatal("failed to start http interface")
	}
	defer svc.Stop()

	log.Info("execution daemon started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT, os.Interrupt)
	<-sigChan

	log.Info("shutting down daemon")
}

func newVenues() ([]ports.Venue, error) {
	defaults := map[string]mock.Config{
		"raydium": mock.Raydium(),
		"meteora": mock.Meteora(),
	}

	names := config.GetStringSlice(config.VenuesKey)
	venues := make([]ports.Venue, 0, len(names))
	for _, name := range names {
		cfg, ok := defaults[name]
		if !ok {
			cfg = mock.Raydium()
			cfg.Name = name
		}
		cfg.QuoteLatency = config.GetDuration(config.MockQuoteLatencyKey)
		cfg.BuildLatency = config.GetDuration(config.MockBuildLatencyKey)
		cfg.ExecutionLatency = config.GetDuration(config.MockExecutionLatencyKey)
		cfg.QuoteFailureRate = config.GetFloat(config.MockQuoteFailureRateKey)
		cfg.ExecutionFailureRate = config.GetFloat(config.MockExecutionFailureRateKey)

		v, err := mock.NewVenue(cfg)
		if err != nil {
			return nil, err
		}
		if config.GetBool(config.EnableVenueBreakerKey) {
			v = venue.WithCircuitBreaker(v)
		}
		venues = append(venues, v)
	}
	return venues, nil
}

func newPublisher() (ports.Publisher, error) {
	endpoints := config.GetStringSlice(config.WebhookEndpointsKey)
	if len(endpoints) <= 0 {
		return nil, nil
	}

	svc := pubsub.NewService(pubsub.DefaultRequestTimeout)
	secret := config.GetString(config.WebhookSecretKey)
	for _, endpoint := range endpoints {
		if _, err := svc.Subscribe(pubsub.AnyTopic, endpoint, secret); err != nil {
			return nil, err
		}
		log.Infof("webhook registered for endpoint %s", endpoint)
	}
	return svc, nil
}
