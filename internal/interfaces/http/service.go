package httpinterface

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-execd/internal/core/application/order"
	"github.com/tdex-network/tdex-execd/internal/core/domain"
	"github.com/tdex-network/tdex-execd/internal/core/ports"
	interfaces "github.com/tdex-network/tdex-execd/internal/interfaces"
)

const shutdownTimeout = 10 * time.Second

// OrderService is the application surface exposed over HTTP.
type OrderService interface {
	SubmitOrder(
		ctx context.Context, req order.SubmitOrderRequest,
	) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	Subscribe(orderID string, channel ports.StatusChannel) error
	QueueStats() ports.QueueStats
	PauseQueue()
	ResumeQueue()
}

type ServiceOpts struct {
	Port           int
	AllowedOrigins []string
	OrderSvc       OrderService
	// MetricsHandler, if not nil, is served at /metrics.
	MetricsHandler http.Handler
}

func (o ServiceOpts) validate() error {
	if o.Port <= 0 || o.Port > 65535 {
		return fmt.Errorf("invalid port %d", o.Port)
	}
	if o.OrderSvc == nil {
		return fmt.Errorf("missing order service")
	}
	return nil
}

type service struct {
	opts   ServiceOpts
	server *http.Server
}

func NewService(opts ServiceOpts) (interfaces.Service, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	return &service{
		opts: opts,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", opts.Port),
			Handler:           NewHandler(opts),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

func (s *service) Start() error {
	lis, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}

	go func() {
		if err := s.server.Serve(lis); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("http: server stopped unexpectedly")
		}
	}()

	log.Infof("http: server listening on %s", s.server.Addr)
	return nil
}

func (s *service) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("http: failed to gracefully stop server")
	}
	log.Info("http: server stopped")
}

// NewHandler returns the router serving the order and queue endpoints.
func NewHandler(opts ServiceOpts) http.Handler {
	h := &handler{opts.OrderSvc}
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/orders/execute", h.submitOrder).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id}", h.getOrder).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}/ws", h.subscribeOrder).Methods(http.MethodGet)
	api.HandleFunc("/queue/stats", h.queueStats).Methods(http.MethodGet)
	api.HandleFunc("/queue/pause", h.pauseQueue).Methods(http.MethodPost)
	api.HandleFunc("/queue/resume", h.resumeQueue).Methods(http.MethodPost)

	router.HandleFunc("/health", h.health).Methods(http.MethodGet)
	if opts.MetricsHandler != nil {
		router.Handle("/metrics", opts.MetricsHandler).Methods(http.MethodGet)
	}

	origins := opts.AllowedOrigins
	if len(origins) <= 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return c.Handler(router)
}
