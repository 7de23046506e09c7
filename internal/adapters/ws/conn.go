package ws

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/quorum/pkg/logger"
	"github.com/okian/quorum/pkg/metrics"
)

// Conn wraps one participant connection. State machine:
// connecting -> joined(sessionID) -> (receiving|sending)* -> closed.
// A single read pump preserves per-connection FIFO; a single write pump
// drains the buffered send channel so broadcasts never block the hub.
type Conn struct {
	id   string
	hub  *Hub
	sock *websocket.Conn

	// sessionID is set exactly once by a join message; empty until then.
	// Only the read pump writes it, so no lock is needed.
	sessionID string

	send chan []byte

	// closed guards double-close of send; protected by the hub mutex.
	closed bool

	logger logger.Logger
}

// ID returns the connection identifier.
func (c *Conn) ID() string { return c.id }

// readPump consumes frames in receipt order until the peer disconnects.
func (c *Conn) readPump(ctx context.Context) {
	defer func() {
		c.hub.unregister(c)
		_ = c.sock.Close()
	}()

	c.sock.SetReadLimit(c.hub.readLimit)
	_ = c.sock.SetReadDeadline(time.Now().Add(c.hub.pongWait))
	c.sock.SetPongHandler(func(string) error {
		return c.sock.SetReadDeadline(time.Now().Add(c.hub.pongWait))
	})

	for {
		_, data, err := c.sock.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug(ctx, "connection closed unexpectedly",
					logger.String("connID", c.id),
					logger.Error(err),
				)
			}
			return
		}
		c.hub.handleMessage(ctx, c, data)
	}
}

// writePump drains the send channel and keeps the connection alive with
// pings. Exits when the send channel is closed by unregister.
func (c *Conn) writePump(ctx context.Context) {
	ticker := time.NewTicker(c.hub.pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.sock.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.sock.SetWriteDeadline(time.Now().Add(c.hub.writeWait))
			if !ok {
				_ = c.sock.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.sock.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.sock.SetWriteDeadline(time.Now().Add(c.hub.writeWait))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueueFrame offers a frame to this connection without blocking. A slow
// consumer with a full buffer loses the frame; position sync is best-effort
// and the next update supersedes it anyway.
func (c *Conn) enqueueFrame(data []byte) {
	select {
	case c.send <- data:
		metrics.RecordBroadcastSent()
	default:
		metrics.RecordBroadcastDropped()
	}
}
