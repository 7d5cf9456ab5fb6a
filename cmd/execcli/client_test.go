package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestClient(t *testing.T) {
	upgrader := websocket.Upgrader{}
	statuses := []string{"pending", "routing", "building", "submitted", "confirmed"}

	router := http.NewServeMux()
	router.HandleFunc("/api/orders/execute", func(w http.ResponseWriter, r *http.Request) {
		req := map[string]interface{}{}
		//nolint
		json.NewDecoder(r.Body).Decode(&req)
		if req["tokenIn"] == req["tokenOut"] {
			w.WriteHeader(http.StatusBadRequest)
			//nolint
			w.Write([]byte(`{"error":"Input and output tokens must be different"}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		//nolint
		w.Write([]byte(`{"orderId":"order-1","status":"pending"}`))
	})
	router.HandleFunc("/api/queue/stats", func(w http.ResponseWriter, r *http.Request) {
		//nolint
		w.Write([]byte(`{"waiting":1,"active":0,"paused":false}`))
	})
	router.HandleFunc("/api/orders/order-1/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, status := range statuses {
			//nolint
			conn.WriteJSON(map[string]string{"orderId": "order-1", "status": status})
		}
	})

	server := httptest.NewServer(router)
	defer server.Close()

	c := newClient(server.URL + "/")

	reply, err := c.submitOrder("market", "SOL", "USDC", 10)
	require.NoError(t, err)
	require.Equal(t, "order-1", reply["orderId"])

	_, err = c.submitOrder("market", "USDC", "USDC", 10)
	require.EqualError(t, err, "Input and output tokens must be different")

	reply, err = c.queueStats()
	require.NoError(t, err)
	require.Equal(t, 1.0, reply["waiting"])

	received := make([]string, 0)
	err = c.watchOrder("order-1", func(update map[string]interface{}) {
		received = append(received, update["status"].(string))
	})
	require.NoError(t, err)
	require.Equal(t, statuses, received)

	require.True(t, strings.HasPrefix(c.baseURL, "http://"))
}
