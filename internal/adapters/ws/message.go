// Package ws implements the realtime matrix synchronization hub over
// websocket connections.
package ws

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Message types accepted at the boundary. Anything else is a protocol
// error: dropped and logged, never fatal to the connection.
const (
	TypeJoin           = "join-matrix"
	TypePositionUpdate = "matrix-position-update"
)

// Envelope is the closed tagged-variant wire shape for realtime messages.
// Position updates use the same shape client-to-server and server-to-peers.
type Envelope struct {
	Type      string  `json:"type"`
	SessionID string  `json:"sessionId"`
	IdeaID    string  `json:"ideaId,omitempty"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// decode parses and validates one inbound frame. The variant set is closed;
// unknown or malformed frames fail with ErrBadMessage kinds.
func decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrBadMessage, err)
	}
	switch env.Type {
	case TypeJoin:
		if strings.TrimSpace(env.SessionID) == "" {
			return Envelope{}, fmt.Errorf("%w: join without sessionId", ErrBadMessage)
		}
	case TypePositionUpdate:
		if strings.TrimSpace(env.SessionID) == "" || strings.TrimSpace(env.IdeaID) == "" {
			return Envelope{}, fmt.Errorf("%w: position update missing sessionId or ideaId", ErrBadMessage)
		}
	default:
		return Envelope{}, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
	return env, nil
}
