package httpinterface

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-execd/internal/core/application/order"
	"github.com/tdex-network/tdex-execd/internal/core/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type handler struct {
	orderSvc OrderService
}

func (h *handler) submitOrder(w http.ResponseWriter, r *http.Request) {
	req := submitOrderRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.orderSvc.SubmitOrder(r.Context(), order.SubmitOrderRequest{
		Type:     domain.OrderType(req.Type),
		TokenIn:  req.TokenIn,
		TokenOut: req.TokenOut,
		AmountIn: req.AmountIn,
	})
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			respondError(w, http.StatusBadRequest, verr.Reason)
			return
		}
		log.WithError(err).Warn("http: failed to submit order")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, submitOrderResponse{
		OrderID: o.ID,
		Status:  o.Status,
	})
}

func (h *handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orderSvc.GetOrder(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, newOrderInfo(o))
}

func (h *handler) subscribeOrder(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["id"]
	if _, err := h.orderSvc.GetOrder(r.Context(), orderID); err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Debug("http: websocket upgrade failed")
		return
	}

	channel := newWSChannel(conn)
	go channel.readPump(func() {
		//nolint
		channel.Close()
	})

	if err := h.orderSvc.Subscribe(orderID, channel); err != nil {
		log.WithError(err).WithField("order_id", orderID).Debug(
			"http: failed to subscribe websocket",
		)
		//nolint
		channel.Close()
	}
}

func (h *handler) queueStats(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.orderSvc.QueueStats())
}

func (h *handler) pauseQueue(w http.ResponseWriter, _ *http.Request) {
	h.orderSvc.PauseQueue()
	respondJSON(w, http.StatusOK, h.orderSvc.QueueStats())
}

func (h *handler) resumeQueue(w http.ResponseWriter, _ *http.Request) {
	h.orderSvc.ResumeQueue()
	respondJSON(w, http.StatusOK, h.orderSvc.QueueStats())
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}
