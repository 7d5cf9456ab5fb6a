package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

type client struct {
	baseURL string
	http    *http.Client
}

func newClient(baseURL string) *client {
	return &client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *client) submitOrder(
	orderType, tokenIn, tokenOut string, amountIn int64,
) (map[string]interface{}, error) {
	body, err := json.Marshal(map[string]interface{}{
		"type":     orderType,
		"tokenIn":  tokenIn,
		"tokenOut": tokenOut,
		"amountIn": amountIn,
	})
	if err != nil {
		return nil, err
	}
	return c.do(http.MethodPost, "/api/orders/execute", body)
}

func (c *client) getOrder(orderID string) (map[string]interface{}, error) {
	return c.do(http.MethodGet, fmt.Sprintf("/api/orders/%s", orderID), nil)
}

func (c *client) queueStats() (map[string]interface{}, error) {
	return c.do(http.MethodGet, "/api/queue/stats", nil)
}

func (c *client) pauseQueue() (map[string]interface{}, error) {
	return c.do(http.MethodPost, "/api/queue/pause", nil)
}

func (c *client) resumeQueue() (map[string]interface{}, error) {
	return c.do(http.MethodPost, "/api/queue/resume", nil)
}

// watchOrder calls onUpdate for every status update of the order until a
// terminal status is received or the connection drops.
func (c *client) watchOrder(
	orderID string, onUpdate func(map[string]interface{}),
) error {
	url := "ws" + strings.TrimPrefix(c.baseURL, "http") +
		fmt.Sprintf("/api/orders/%s/ws", orderID)

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("order %s not found", orderID)
		}
		return err
	}
	defer conn.Close()

	for {
		update := map[string]interface{}{}
		if err := conn.ReadJSON(&update); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		}
		onUpdate(update)

		if status, _ := update["status"].(string); status == "confirmed" ||
			status == "failed" {
			return nil
		}
	}
}

func (c *client) do(
	method, path string, body []byte,
) (map[string]interface{}, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data := map[string]interface{}{}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode >= 400 {
		if msg, ok := data["error"].(string); ok {
			return nil, fmt.Errorf("%s", msg)
		}
		return nil, fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	return data, nil
}
