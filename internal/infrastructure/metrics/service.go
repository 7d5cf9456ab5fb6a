package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tdex-network/tdex-execd/internal/core/domain"
	"github.com/tdex-network/tdex-execd/internal/core/ports"
)

const namespace = "execd"

// Service exports the measurements of the pipeline as prometheus metrics
// held by a dedicated registry.
type Service struct {
	registry *prometheus.Registry

	routesSelected     *prometheus.CounterVec
	quoteRounds        *prometheus.CounterVec
	quoteLatency       prometheus.Histogram
	orderTransitions   *prometheus.CounterVec
	jobsFinished       *prometheus.CounterVec
	jobLatency         prometheus.Histogram
	queueJobs          *prometheus.GaugeVec
	queuePaused        prometheus.Gauge
	subscribersEvicted prometheus.Counter
}

func NewService() *Service {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Service{
		registry: reg,

		routesSelected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "routing",
			Name:      "routes_selected_total",
			Help:      "Number of orders routed to each venue.",
		}, []string{"venue"}),
		quoteRounds: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "routing",
			Name:      "quote_rounds_total",
			Help:      "Number of quote round attempts by result.",
		}, []string{"result"}),
		quoteLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "routing",
			Name:      "quote_round_seconds",
			Help:      "Duration of quote round attempts.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		orderTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "transitions_total",
			Help:      "Number of orders entering each status.",
		}, []string{"status"}),
		jobsFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "job_attempts_total",
			Help:      "Number of job attempts by outcome.",
		}, []string{"outcome"}),
		jobLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "job_attempt_seconds",
			Help:      "Duration of job attempts.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		queueJobs: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "jobs",
			Help:      "Number of jobs by state.",
		}, []string{"state"}),
		queuePaused: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "paused",
			Help:      "Whether dispatching is paused.",
		}),
		subscribersEvicted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fanout",
			Name:      "subscribers_evicted_total",
			Help:      "Number of live channels evicted from the registry.",
		}),
	}
}

func (s *Service) RouteSelected(venue string) {
	s.routesSelected.WithLabelValues(venue).Inc()
}

func (s *Service) QuoteRound(duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	s.quoteRounds.WithLabelValues(result).Inc()
	s.quoteLatency.Observe(duration.Seconds())
}

func (s *Service) OrderTransition(status domain.OrderStatus) {
	s.orderTransitions.WithLabelValues(string(status)).Inc()
}

func (s *Service) JobFinished(outcome string, duration time.Duration) {
	s.jobsFinished.WithLabelValues(outcome).Inc()
	s.jobLatency.Observe(duration.Seconds())
}

func (s *Service) QueueStats(stats ports.QueueStats) {
	s.queueJobs.WithLabelValues("waiting").Set(float64(stats.Waiting))
	s.queueJobs.WithLabelValues("active").Set(float64(stats.Active))
	s.queueJobs.WithLabelValues("delayed").Set(float64(stats.Delayed))
	s.queueJobs.WithLabelValues("completed").Set(float64(stats.Completed))
	s.queueJobs.WithLabelValues("failed").Set(float64(stats.Failed))

	paused := 0.0
	if stats.Paused {
		paused = 1
	}
	s.queuePaused.Set(paused)
}

func (s *Service) SubscriberEvicted() {
	s.subscribersEvicted.Inc()
}

// Registry gives access to the underlying registry.
func (s *Service) Registry() *prometheus.Registry {
	return s.registry
}

// Handler serves the metrics in the prometheus exposition format.
func (s *Service) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}
