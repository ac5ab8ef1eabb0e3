package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Conn is a WebSocket connection with keepalive handling.
// Reads and writes go straight to the underlying gorilla connection:
// one concurrent reader and one concurrent writer, per its contract.
type Conn struct {
	*websocket.Conn

	logger    *slog.Logger
	done      chan struct{}
	closeOnce sync.Once
}

func newConn(wsConn *websocket.Conn, pingInterval time.Duration, logger *slog.Logger) *Conn {
	c := &Conn{
		Conn:   wsConn,
		logger: logger,
		done:   make(chan struct{}),
	}

	if pingInterval > 0 {
		readWait := pingInterval * 2

		wsConn.SetReadDeadline(time.Now().Add(readWait))
		wsConn.SetPongHandler(func(string) error {
			return wsConn.SetReadDeadline(time.Now().Add(readWait))
		})

		go c.keepalive(pingInterval)
	}

	return c
}

func (c *Conn) keepalive(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(writeWait)
			if err := c.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				c.logger.Warn("keepalive ping failed", "error", err)
				return
			}
		}
	}
}

// Close stops the keepalive loop and closes the connection. Safe to
// call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)

		deadline := time.Now().Add(writeWait)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if werr := c.WriteControl(websocket.CloseMessage, msg, deadline); werr != nil {
			c.logger.Debug("close frame write failed", "error", werr)
		}

		err = c.Conn.Close()
	})
	return err
}
