package ws

import (
	"time"

	"github.com/okian/quorum/pkg/logger"
)

// Option applies a configuration option to the Hub.
type Option func(*Hub)

// WithLogger sets a custom logger for the hub.
func WithLogger(l logger.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l.Named("hub")
		}
	}
}

// WithSendBuffer sets the per-connection outbound frame buffer. A full
// buffer drops frames for that peer instead of blocking the hub.
func WithSendBuffer(size int) Option {
	return func(h *Hub) {
		if size > 0 {
			h.sendBuffer = size
		}
	}
}

// WithPingInterval sets the keepalive ping cadence. It must stay below the
// pong wait or connections will be reaped between pings.
func WithPingInterval(interval time.Duration) Option {
	return func(h *Hub) {
		if interval > 0 {
			h.pingInterval = interval
		}
	}
}

// WithPongWait sets how long a silent connection survives.
func WithPongWait(wait time.Duration) Option {
	return func(h *Hub) {
		if wait > 0 {
			h.pongWait = wait
		}
	}
}

// WithReadLimit caps inbound frame size in bytes.
func WithReadLimit(limit int64) Option {
	return func(h *Hub) {
		if limit > 0 {
			h.readLimit = limit
		}
	}
}
