package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/okian/quorum/internal/domain/model"
	"github.com/okian/quorum/pkg/logger"
	"github.com/okian/quorum/pkg/metrics"
)

// Default hub configuration constants.
const (
	defaultSendBuffer   = 64
	defaultWriteWait    = 10 * time.Second
	defaultPongWait     = 60 * time.Second
	defaultPingInterval = 50 * time.Second
	defaultReadLimit    = 4096
)

// Enqueuer accepts a position event for asynchronous persistence. Returns
// false on backpressure; the broadcast has already happened by then, so
// the loss is logged rather than surfaced to the participant.
type Enqueuer interface {
	Enqueue(ctx context.Context, e model.PositionEvent) bool
}

// Hub maintains the set of connected participants per session and fans out
// position-change frames to all of them except the originator. It never
// persists anything itself; durability runs on the queue/worker path so
// broadcast latency cannot depend on persistence latency.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*Conn]struct{}

	enqueuer Enqueuer
	upgrader websocket.Upgrader

	sendBuffer   int
	writeWait    time.Duration
	pongWait     time.Duration
	pingInterval time.Duration
	readLimit    int64

	logger logger.Logger
}

// NewHub creates a hub that hands accepted position events to enqueuer.
func NewHub(enqueuer Enqueuer, opts ...Option) *Hub {
	h := &Hub{
		sessions:     make(map[string]map[*Conn]struct{}),
		enqueuer:     enqueuer,
		sendBuffer:   defaultSendBuffer,
		writeWait:    defaultWriteWait,
		pongWait:     defaultPongWait,
		pingInterval: defaultPingInterval,
		readLimit:    defaultReadLimit,
		logger:       logger.Get().Named("hub"),
	}

	for _, opt := range opts {
		opt(h)
	}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// Origin checks belong to the auth layer in front of this service.
		CheckOrigin: func(*http.Request) bool { return true },
	}

	return h
}

// ServeHTTP upgrades GET /ws requests and runs the connection pumps.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sock, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}

	c := &Conn{
		id:     uuid.New().String(),
		hub:    h,
		sock:   sock,
		send:   make(chan []byte, h.sendBuffer),
		logger: h.logger,
	}

	// The pumps outlive the HTTP handler; tie them to a background context
	// so request cancellation does not kill an established connection.
	ctx := context.Background()
	go c.writePump(ctx)
	go c.readPump(ctx)
}

// handleMessage dispatches one inbound frame from a connection. Protocol
// violations are dropped and logged; the connection stays open.
func (h *Hub) handleMessage(ctx context.Context, c *Conn, data []byte) {
	env, err := decode(data)
	if err != nil {
		h.dropMessage(ctx, c, err)
		return
	}

	switch env.Type {
	case TypeJoin:
		h.join(ctx, c, env.SessionID)
	case TypePositionUpdate:
		h.positionUpdate(ctx, c, env)
	}
}

// join binds the connection to one session. Re-joining the same session is
// idempotent; switching sessions on a live connection is refused.
func (h *Hub) join(ctx context.Context, c *Conn, sessionID string) {
	if c.sessionID == sessionID {
		return
	}
	if c.sessionID != "" {
		h.dropMessage(ctx, c, ErrAlreadyJoined)
		return
	}

	c.sessionID = sessionID

	h.mu.Lock()
	conns, ok := h.sessions[sessionID]
	if !ok {
		conns = make(map[*Conn]struct{})
		h.sessions[sessionID] = conns
	}
	conns[c] = struct{}{}
	h.updateGaugesLocked()
	h.mu.Unlock()

	h.logger.Debug(ctx, "connection joined session",
		logger.String("connID", c.id),
		logger.String("sessionID", sessionID),
	)
}

// positionUpdate clamps and re-broadcasts the frame to session peers, then
// hands it to the persistence queue. The two paths are deliberately
// decoupled.
func (h *Hub) positionUpdate(ctx context.Context, c *Conn, env Envelope) {
	if c.sessionID == "" {
		h.dropMessage(ctx, c, ErrNotJoined)
		return
	}
	if env.SessionID != c.sessionID {
		h.dropMessage(ctx, c, ErrSessionMismatch)
		return
	}

	metrics.RecordPositionUpdate()

	env.X = model.ClampPercent(env.X)
	env.Y = model.ClampPercent(env.Y)

	h.broadcast(env, c.id)

	ok := h.enqueuer.Enqueue(ctx, model.PositionEvent{
		SessionID: env.SessionID,
		IdeaID:    env.IdeaID,
		X:         env.X,
		Y:         env.Y,
		ConnID:    c.id,
	})
	if !ok {
		// Peers already saw the live frame; persistence catches up on the
		// next drag of this idea.
		h.logger.Warn(ctx, "position event dropped by persistence queue",
			logger.String("sessionID", env.SessionID),
			logger.String("ideaID", env.IdeaID),
		)
	}
}

// Broadcast fans a position frame out to every connection joined to the
// session, except the one identified by excludeConnID (empty means none).
// Used by the hub itself and by REST-originated position writes.
func (h *Hub) Broadcast(ctx context.Context, sessionID, ideaID string, x, y float64, excludeConnID string) {
	env := Envelope{
		Type:      TypePositionUpdate,
		SessionID: sessionID,
		IdeaID:    ideaID,
		X:         model.ClampPercent(x),
		Y:         model.ClampPercent(y),
	}
	h.broadcast(env, excludeConnID)
}

func (h *Hub) broadcast(env Envelope, excludeConnID string) {
	data, err := json.Marshal(env)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.sessions[env.SessionID] {
		if c.id == excludeConnID {
			continue
		}
		c.enqueueFrame(data)
	}
}

// unregister removes a connection from the fan-out set promptly so
// broadcasts never accumulate dead targets.
func (h *Hub) unregister(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)

	if c.sessionID != "" {
		if conns, ok := h.sessions[c.sessionID]; ok {
			delete(conns, c)
			if len(conns) == 0 {
				delete(h.sessions, c.sessionID)
			}
		}
	}
	h.updateGaugesLocked()
}

// ConnectionCount returns the number of connections joined to a session.
func (h *Hub) ConnectionCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

// TotalConnections returns the number of connections across all sessions.
func (h *Hub) TotalConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, conns := range h.sessions {
		total += len(conns)
	}
	return total
}

// SessionCount returns the number of sessions with at least one connection.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// dropMessage logs a protocol violation without closing the connection.
func (h *Hub) dropMessage(ctx context.Context, c *Conn, err error) {
	metrics.RecordProtocolError(protocolReason(err))
	h.logger.Warn(ctx, "dropping message",
		logger.String("connID", c.id),
		logger.Error(err),
	)
}

// protocolReason maps a protocol error to its metric label.
func protocolReason(err error) string {
	switch {
	case errors.Is(err, ErrNotJoined):
		return "not_joined"
	case errors.Is(err, ErrSessionMismatch):
		return "session_mismatch"
	case errors.Is(err, ErrAlreadyJoined):
		return "already_joined"
	case errors.Is(err, ErrUnknownType):
		return "unknown_type"
	default:
		return "malformed"
	}
}

// updateGaugesLocked refreshes connection gauges. Must be called with h.mu
// held.
func (h *Hub) updateGaugesLocked() {
	total := 0
	for _, conns := range h.sessions {
		total += len(conns)
	}
	metrics.UpdateHubConnections(total)
	metrics.UpdateHubSessions(len(h.sessions))
}
