// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

// MatrixHandler handles canonical matrix position reads and writes. The
// realtime path lives on the websocket hub; this is the request/response
// surface for the same store.
type MatrixHandler struct {
	deps Dependencies
}

// NewMatrixHandler creates a new matrix handler.
func NewMatrixHandler(deps Dependencies) *MatrixHandler {
	return &MatrixHandler{deps: deps}
}

// positionRequest mirrors the OpenAPI schema for PUT /matrix/position.
type positionRequest struct {
	SessionID string  `json:"session_id"`
	IdeaID    string  `json:"idea_id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// HandlePosition handles GET and PUT /matrix/position requests.
func (h *MatrixHandler) HandlePosition(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleGet(w, r)
	case http.MethodPut:
		h.handlePut(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *MatrixHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	ideaID := r.URL.Query().Get("idea_id")
	if sessionID == "" || ideaID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind("api.get_position", ErrBadRequest))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.MatrixPosition(r.Context(), sessionID, ideaID))
}

func (h *MatrixHandler) handlePut(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_position"
	var req positionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.SessionID) == "" || strings.TrimSpace(req.IdeaID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	// Out-of-range coordinates are clamped downstream, never rejected.
	pos, err := h.deps.SetMatrixPosition(r.Context(), req.SessionID, req.IdeaID, req.X, req.Y)
	if err != nil {
		writeDomainError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, pos)
}
