// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/okian/quorum/internal/domain/model"
)

// AllocationsHandler handles coin allocation submission.
type AllocationsHandler struct {
	deps Dependencies
}

// NewAllocationsHandler creates a new allocations handler.
func NewAllocationsHandler(deps Dependencies) *AllocationsHandler {
	return &AllocationsHandler{deps: deps}
}

// allocationRequest mirrors the OpenAPI schema for PUT /allocations.
// The full set replaces the participant's prior records; validation runs
// before anything is persisted.
type allocationRequest struct {
	SessionID     string `json:"session_id"`
	ParticipantID string `json:"participant_id"`
	Allocations   []struct {
		IdeaID string `json:"idea_id"`
		Coins  int    `json:"coins"`
	} `json:"allocations"`
}

// HandlePutAllocations handles PUT /allocations requests. Budget and
// negativity violations are rejected all-or-nothing with the offending
// amounts named, leaving prior state unchanged.
func (h *AllocationsHandler) HandlePutAllocations(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_allocations"
	if r.Method != http.MethodPut {
		http.NotFound(w, r)
		return
	}
	var req allocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.SessionID) == "" || strings.TrimSpace(req.ParticipantID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	allocs := make([]model.Allocation, len(req.Allocations))
	for i, a := range req.Allocations {
		if strings.TrimSpace(a.IdeaID) == "" {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		allocs[i] = model.Allocation{
			ParticipantID: req.ParticipantID,
			IdeaID:        a.IdeaID,
			Coins:         a.Coins,
		}
	}

	if err := h.deps.SubmitAllocations(r.Context(), req.SessionID, req.ParticipantID, allocs); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stored"})
}
