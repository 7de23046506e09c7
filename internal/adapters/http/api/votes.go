// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

// VotesHandler handles pairwise vote submission and statistics.
type VotesHandler struct {
	deps Dependencies
}

// NewVotesHandler creates a new votes handler.
func NewVotesHandler(deps Dependencies) *VotesHandler {
	return &VotesHandler{deps: deps}
}

// voteRequest mirrors the OpenAPI schema for POST /votes.
type voteRequest struct {
	SessionID string `json:"session_id"`
	VoterID   string `json:"voter_id"`
	WinnerID  string `json:"winner_id"`
	LoserID   string `json:"loser_id"`
}

func (v voteRequest) validate() error {
	switch {
	case strings.TrimSpace(v.SessionID) == "":
		return NewKind("api.post_vote", ErrBadRequest)
	case strings.TrimSpace(v.VoterID) == "":
		return NewKind("api.post_vote", ErrBadRequest)
	case strings.TrimSpace(v.WinnerID) == "":
		return NewKind("api.post_vote", ErrBadRequest)
	case strings.TrimSpace(v.LoserID) == "":
		return NewKind("api.post_vote", ErrBadRequest)
	case v.WinnerID == v.LoserID:
		return NewKind("api.post_vote", ErrBadRequest)
	}
	return nil
}

// HandlePostVote handles POST /votes requests. Duplicate votes on the same
// pair are stored as-is; the aggregator tolerates them.
func (h *VotesHandler) HandlePostVote(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_vote"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.deps.SubmitVote(r.Context(), req.SessionID, req.VoterID, req.WinnerID, req.LoserID); err != nil {
		writeDomainError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}

// HandleGetStats handles GET /votes/stats?session_id= requests.
func (h *VotesHandler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind("api.get_vote_stats", ErrBadRequest))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.VoteStats(r.Context(), sessionID))
}
