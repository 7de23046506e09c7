// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

// RankingsHandler handles ordinal ranking submission and the Borda query.
type RankingsHandler struct {
	deps Dependencies
}

// NewRankingsHandler creates a new rankings handler.
func NewRankingsHandler(deps Dependencies) *RankingsHandler {
	return &RankingsHandler{deps: deps}
}

// rankingRequest mirrors the OpenAPI schema for PUT /rankings.
// IdeaIDs is most-preferred first; partial rankings are accepted.
type rankingRequest struct {
	SessionID     string   `json:"session_id"`
	ParticipantID string   `json:"participant_id"`
	IdeaIDs       []string `json:"idea_ids"`
}

// HandlePutRanking handles PUT /rankings requests. Resubmission replaces
// the participant's prior ranking.
func (h *RankingsHandler) HandlePutRanking(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_ranking"
	if r.Method != http.MethodPut {
		http.NotFound(w, r)
		return
	}
	var req rankingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.SessionID) == "" || strings.TrimSpace(req.ParticipantID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if err := h.deps.SubmitRanking(r.Context(), req.SessionID, req.ParticipantID, req.IdeaIDs); err != nil {
		writeDomainError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stored"})
}

// HandleGetBorda handles GET /rankings/borda?session_id= requests.
func (h *RankingsHandler) HandleGetBorda(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind("api.get_borda", ErrBadRequest))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.BordaRanking(r.Context(), sessionID))
}
