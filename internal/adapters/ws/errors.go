package ws

import "errors"

// Sentinel kinds for protocol errors. Offending messages are dropped and
// logged; the connection stays open.
var (
	ErrBadMessage      = errors.New("malformed message")
	ErrUnknownType     = errors.New("unknown message type")
	ErrNotJoined       = errors.New("position update before join")
	ErrSessionMismatch = errors.New("message for a different session")
	ErrAlreadyJoined   = errors.New("connection already joined a session")
)
