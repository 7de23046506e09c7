// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/quorum/internal/adapters/repository"
	"github.com/okian/quorum/internal/domain/marketplace"
	"github.com/okian/quorum/internal/domain/model"
	"github.com/okian/quorum/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Input surface
	AddIdea(ctx context.Context, sessionID, id, content, category string) (model.Idea, error)
	AddParticipant(ctx context.Context, sessionID, participantID string) error
	SubmitVote(ctx context.Context, sessionID, voterID, winnerID, loserID string) error
	SubmitRanking(ctx context.Context, sessionID, participantID string, ideaIDs []string) error
	SubmitAllocations(ctx context.Context, sessionID, participantID string, allocs []model.Allocation) error
	SetMatrixPosition(ctx context.Context, sessionID, ideaID string, x, y float64) (types.Position, error)

	// Query surface; pure recomputation over stored events.
	Ideas(ctx context.Context, sessionID string) []model.Idea
	VoteStats(ctx context.Context, sessionID string) []types.VoteStat
	BordaRanking(ctx context.Context, sessionID string) []types.BordaScore
	MarketplaceScores(ctx context.Context, sessionID string) []types.MarketScore
	MarketplaceProgress(ctx context.Context, sessionID string) types.Progress
	RemainingBudget(ctx context.Context, sessionID, participantID string) int
	MatrixPosition(ctx context.Context, sessionID, ideaID string) types.Position
	Export(ctx context.Context, sessionID, modality string) (string, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	ideasHandler        *IdeasHandler
	participantsHandler *ParticipantsHandler
	votesHandler        *VotesHandler
	rankingsHandler     *RankingsHandler
	allocationsHandler  *AllocationsHandler
	marketplaceHandler  *MarketplaceHandler
	matrixHandler       *MatrixHandler
	exportHandler       *ExportHandler
	healthHandler       *HealthHandler
	statsHandler        *StatsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		ideasHandler:        NewIdeasHandler(deps),
		participantsHandler: NewParticipantsHandler(deps),
		votesHandler:        NewVotesHandler(deps),
		rankingsHandler:     NewRankingsHandler(deps),
		allocationsHandler:  NewAllocationsHandler(deps),
		marketplaceHandler:  NewMarketplaceHandler(deps),
		matrixHandler:       NewMatrixHandler(deps),
		exportHandler:       NewExportHandler(deps),
		healthHandler:       NewHealthHandler(),
		statsHandler:        NewStatsHandler(statsProvider),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/ideas", MetricsMiddleware(s.ideasHandler.HandleIdeas, "ideas"))
	mux.HandleFunc("/participants", MetricsMiddleware(s.participantsHandler.HandlePostParticipant, "participants"))
	mux.HandleFunc("/votes", MetricsMiddleware(s.votesHandler.HandlePostVote, "votes"))
	mux.HandleFunc("/votes/stats", MetricsMiddleware(s.votesHandler.HandleGetStats, "votes_stats"))
	mux.HandleFunc("/rankings", MetricsMiddleware(s.rankingsHandler.HandlePutRanking, "rankings"))
	mux.HandleFunc("/rankings/borda", MetricsMiddleware(s.rankingsHandler.HandleGetBorda, "borda"))
	mux.HandleFunc("/allocations", MetricsMiddleware(s.allocationsHandler.HandlePutAllocations, "allocations"))
	mux.HandleFunc("/marketplace/scores", MetricsMiddleware(s.marketplaceHandler.HandleGetScores, "marketplace_scores"))
	mux.HandleFunc("/marketplace/progress", MetricsMiddleware(s.marketplaceHandler.HandleGetProgress, "marketplace_progress"))
	mux.HandleFunc("/marketplace/remaining", MetricsMiddleware(s.marketplaceHandler.HandleGetRemaining, "marketplace_remaining"))
	mux.HandleFunc("/matrix/position", MetricsMiddleware(s.matrixHandler.HandlePosition, "matrix_position"))
	mux.HandleFunc("/export", MetricsMiddleware(s.exportHandler.HandleGetExport, "export"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// Wrap annotates an upstream error with the failing operation.
func Wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}

// NewKind annotates a sentinel kind with the failing operation.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// WrapKind annotates an upstream error with both an operation and a kind.
func WrapKind(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

// writeDomainError translates domain error kinds to HTTP responses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, marketplace.ErrBudgetExceeded):
		writeError(w, http.StatusBadRequest, "budget_exceeded", err)
	case errors.Is(err, marketplace.ErrNegativeAllocation):
		writeError(w, http.StatusBadRequest, "negative_allocation", err)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
