// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// MarketplaceHandler handles marketplace queries.
type MarketplaceHandler struct {
	deps Dependencies
}

// NewMarketplaceHandler creates a new marketplace handler.
func NewMarketplaceHandler(deps Dependencies) *MarketplaceHandler {
	return &MarketplaceHandler{deps: deps}
}

// HandleGetScores handles GET /marketplace/scores?session_id= requests.
func (h *MarketplaceHandler) HandleGetScores(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind("api.get_market_scores", ErrBadRequest))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.MarketplaceScores(r.Context(), sessionID))
}

// HandleGetProgress handles GET /marketplace/progress?session_id= requests.
func (h *MarketplaceHandler) HandleGetProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind("api.get_market_progress", ErrBadRequest))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.MarketplaceProgress(r.Context(), sessionID))
}

// HandleGetRemaining handles GET /marketplace/remaining requests.
func (h *MarketplaceHandler) HandleGetRemaining(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_market_remaining"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	sessionID := r.URL.Query().Get("session_id")
	participantID := r.URL.Query().Get("participant_id")
	if sessionID == "" || participantID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	remaining := h.deps.RemainingBudget(r.Context(), sessionID, participantID)
	writeJSON(w, http.StatusOK, map[string]int{"remaining": remaining})
}
