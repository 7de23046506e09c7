// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

// IdeasHandler handles idea registration and listing.
type IdeasHandler struct {
	deps Dependencies
}

// NewIdeasHandler creates a new ideas handler.
func NewIdeasHandler(deps Dependencies) *IdeasHandler {
	return &IdeasHandler{deps: deps}
}

// ideaRequest mirrors the OpenAPI schema for POST /ideas.
type ideaRequest struct {
	SessionID string `json:"session_id"`
	ID        string `json:"id"`
	Content   string `json:"content"`
	Category  string `json:"category"`
}

func (r ideaRequest) validate() error {
	switch {
	case strings.TrimSpace(r.SessionID) == "":
		return NewKind("api.post_idea", ErrBadRequest)
	case strings.TrimSpace(r.Content) == "":
		return NewKind("api.post_idea", ErrBadRequest)
	}
	return nil
}

// HandleIdeas handles POST /ideas and GET /ideas?session_id=.
func (h *IdeasHandler) HandleIdeas(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handlePost(w, r)
	case http.MethodGet:
		h.handleGet(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *IdeasHandler) handlePost(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_idea"
	var req ideaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	idea, err := h.deps.AddIdea(r.Context(), req.SessionID, req.ID, req.Content, req.Category)
	if err != nil {
		writeDomainError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": idea.ID})
}

func (h *IdeasHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind("api.get_ideas", ErrBadRequest))
		return
	}
	ideas := h.deps.Ideas(r.Context(), sessionID)
	out := make([]map[string]string, len(ideas))
	for i, idea := range ideas {
		out[i] = map[string]string{
			"id":       idea.ID,
			"content":  idea.Content,
			"category": idea.EffectiveCategory(),
		}
	}
	writeJSON(w, http.StatusOK, out)
}
