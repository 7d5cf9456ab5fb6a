package httpinterface

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tdex-network/tdex-execd/internal/core/domain"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	maxMsgSize = 512
)

var errChannelClosed = fmt.Errorf("websocket channel is closed")

// wsChannel delivers status updates over a websocket connection. Writes are
// serialized since a connection supports at most one concurrent writer.
type wsChannel struct {
	conn *websocket.Conn

	writeLock sync.Mutex
	open      atomic.Bool
	closeOnce sync.Once
}

func newWSChannel(conn *websocket.Conn) *wsChannel {
	c := &wsChannel{conn: conn}
	c.open.Store(true)
	return c
}

func (c *wsChannel) Send(update domain.StatusUpdate) error {
	if !c.IsOpen() {
		return errChannelClosed
	}

	c.writeLock.Lock()
	defer c.writeLock.Unlock()

	//nolint
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(update); err != nil {
		c.open.Store(false)
		return err
	}
	return nil
}

func (c *wsChannel) Ping() error {
	if !c.IsOpen() {
		return errChannelClosed
	}

	c.writeLock.Lock()
	defer c.writeLock.Unlock()

	if err := c.conn.WriteControl(
		websocket.PingMessage, nil, time.Now().Add(writeWait),
	); err != nil {
		c.open.Store(false)
		return err
	}
	return nil
}

func (c *wsChannel) IsOpen() bool {
	return c.open.Load()
}

func (c *wsChannel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.open.Store(false)

		c.writeLock.Lock()
		//nolint
		c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait),
		)
		c.writeLock.Unlock()

		err = c.conn.Close()
	})
	return err
}

// readPump consumes the incoming frames, so that pong and close frames are
// processed, until the connection breaks. Client messages are ignored.
func (c *wsChannel) readPump(onClose func()) {
	defer func() {
		c.open.Store(false)
		onClose()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	//nolint
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
