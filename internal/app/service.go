// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the websocket hub.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	eventqueue "github.com/okian/quorum/internal/adapters/mq/queue"
	workerpool "github.com/okian/quorum/internal/adapters/mq/worker"
	repository "github.com/okian/quorum/internal/adapters/repository"
	"github.com/okian/quorum/internal/adapters/ws"
	"github.com/okian/quorum/internal/domain/borda"
	"github.com/okian/quorum/internal/domain/export"
	"github.com/okian/quorum/internal/domain/marketplace"
	"github.com/okian/quorum/internal/domain/model"
	"github.com/okian/quorum/internal/domain/types"
	"github.com/okian/quorum/internal/domain/votestats"
	"github.com/okian/quorum/pkg/logger"
	"github.com/okian/quorum/pkg/metrics"
)

// setterAdapter narrows repository.Store to the worker's Setter interface.
// Workers only need the write result's error, not the stored value.
type setterAdapter struct {
	store repository.Store
}

func (a *setterAdapter) SetPosition(ctx context.Context, sessionID, ideaID string, x, y float64) error {
	_, err := a.store.SetPosition(ctx, sessionID, ideaID, x, y)
	return err
}

// Service implements the API dependencies for the consensus system.
// Aggregated views (vote stats, Borda, marketplace scores) are recomputed
// from stored events on every read; nothing is cached between requests.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	eventQueue eventqueue.Queue
	workerPool *workerpool.Pool
	hub        *ws.Hub
	exporter   *export.Serializer

	// Configuration
	workerCount       int
	queueSize         int
	coinBudget        int
	persistRetryCount int
	persistRetryDelay time.Duration
	hubSendBuffer     int
	defaultX          float64
	defaultY          float64

	// State
	started bool
	stopCh  chan struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of persistence worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the position event queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithCoinBudget sets the marketplace budget per participant.
func WithCoinBudget(budget int) Option {
	return func(s *Service) {
		if budget > 0 {
			s.coinBudget = budget
		}
	}
}

// WithPersistRetry sets the retry policy for transient store failures on
// the async persistence path.
func WithPersistRetry(count int, delay time.Duration) Option {
	return func(s *Service) {
		if count > 0 && delay > 0 {
			s.persistRetryCount = count
			s.persistRetryDelay = delay
		}
	}
}

// WithHubSendBuffer sets the per-connection outbound frame buffer.
func WithHubSendBuffer(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.hubSendBuffer = size
		}
	}
}

// WithDefaultPosition sets the placement reported for ideas nobody has
// moved yet.
func WithDefaultPosition(x, y float64) Option {
	return func(s *Service) {
		s.defaultX = model.ClampPercent(x)
		s.defaultY = model.ClampPercent(y)
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock sets the export timestamp source. Used by tests for
// deterministic output.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.exporter = export.NewSerializer(export.WithClock(clock))
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:       runtime.NumCPU() * 2,
		queueSize:         65_536,
		coinBudget:        marketplace.DefaultBudget,
		persistRetryCount: 3,
		persistRetryDelay: 50 * time.Millisecond,
		hubSendBuffer:     64,
		defaultX:          50,
		defaultY:          50,
		exporter:          export.NewSerializer(),
		stopCh:            make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting consensus service...")

	s.store = repository.NewMemStore(
		repository.WithDefaultPosition(s.defaultX, s.defaultY),
	)
	s.eventQueue = eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.queueSize),
	)
	s.workerPool = workerpool.NewPool(
		s.workerCount,
		s.eventQueue,
		&setterAdapter{store: s.store},
		workerpool.WithRetry(s.persistRetryCount, s.persistRetryDelay),
	)
	s.workerPool.Start(ctx)

	s.hub = ws.NewHub(s.eventQueue,
		ws.WithLogger(s.logger.Named("hub")),
		ws.WithSendBuffer(s.hubSendBuffer),
	)

	s.started = true
	s.logger.Info(ctx, "consensus service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("coinBudget", s.coinBudget),
	)

	return nil
}

// Stop gracefully shuts down the service. Queued position events are
// drained by the worker pool before the store goes away.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping consensus service...")

	if q, ok := s.eventQueue.(*eventqueue.InMemoryQueue); ok {
		_ = q.Close()
	}

	if s.workerPool != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_ = s.workerPool.Shutdown(shutdownCtx)
	}

	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}

	s.started = false
	s.logger.Info(ctx, "consensus service stopped")
}

// Hub exposes the websocket hub for route registration.
func (s *Service) Hub() *ws.Hub {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hub
}

// AddIdea registers a new idea. Callers may supply their own id; when it
// is empty one is assigned.
func (s *Service) AddIdea(ctx context.Context, sessionID, id, content, category string) (model.Idea, error) {
	if id == "" {
		id = uuid.New().String()
	}
	idea := model.Idea{
		ID:        id,
		SessionID: sessionID,
		Content:   content,
		Category:  category,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.AddIdea(ctx, idea); err != nil {
		return model.Idea{}, err
	}
	return idea, nil
}

// AddParticipant registers a participant on the session roster.
func (s *Service) AddParticipant(ctx context.Context, sessionID, participantID string) error {
	return s.store.AddParticipant(ctx, sessionID, participantID)
}

// SubmitVote records one pairwise comparison. Both ideas must exist in the
// session; votes are append-only and duplicates are kept.
func (s *Service) SubmitVote(ctx context.Context, sessionID, voterID, winnerID, loserID string) error {
	if _, err := s.store.Idea(ctx, sessionID, winnerID); err != nil {
		return fmt.Errorf("winner %q: %w", winnerID, err)
	}
	if _, err := s.store.Idea(ctx, sessionID, loserID); err != nil {
		return fmt.Errorf("loser %q: %w", loserID, err)
	}
	return s.store.AppendVote(ctx, sessionID, model.PairwiseVote{
		VoterID:  voterID,
		WinnerID: winnerID,
		LoserID:  loserID,
		At:       time.Now().UTC(),
	})
}

// SubmitRanking stores a participant's full ordering, replacing any prior
// submission. Every ranked idea must exist in the session.
func (s *Service) SubmitRanking(ctx context.Context, sessionID, participantID string, ideaIDs []string) error {
	for _, id := range ideaIDs {
		if _, err := s.store.Idea(ctx, sessionID, id); err != nil {
			return fmt.Errorf("ranked idea %q: %w", id, err)
		}
	}
	return s.store.PutRanking(ctx, sessionID, model.Ranking{
		ParticipantID: participantID,
		IdeaIDs:       ideaIDs,
	})
}

// SubmitAllocations validates the full allocation set against the budget
// and replaces the participant's prior allocations atomically. A rejected
// set leaves the stored state untouched.
func (s *Service) SubmitAllocations(ctx context.Context, sessionID, participantID string, allocs []model.Allocation) error {
	for _, a := range allocs {
		if _, err := s.store.Idea(ctx, sessionID, a.IdeaID); err != nil {
			metrics.RecordAllocationRejected("unknown_idea")
			return fmt.Errorf("allocation idea %q: %w", a.IdeaID, err)
		}
	}
	if err := marketplace.Validate(allocs, s.coinBudget); err != nil {
		metrics.RecordAllocationRejected(rejectionReason(err))
		return err
	}
	return s.store.ReplaceAllocations(ctx, sessionID, participantID, allocs)
}

// SetMatrixPosition applies a position write synchronously and broadcasts
// the change to connected participants. REST writes carry no originating
// connection, so everyone in the session receives the frame.
func (s *Service) SetMatrixPosition(ctx context.Context, sessionID, ideaID string, x, y float64) (types.Position, error) {
	if _, err := s.store.Idea(ctx, sessionID, ideaID); err != nil {
		return types.Position{}, err
	}
	pos, err := s.store.SetPosition(ctx, sessionID, ideaID, x, y)
	if err != nil {
		return types.Position{}, err
	}
	metrics.RecordPositionUpdate()
	s.hub.Broadcast(ctx, sessionID, ideaID, pos.X, pos.Y, "")
	return types.Position{X: pos.X, Y: pos.Y}, nil
}

// Ideas returns the session's ideas in insertion order.
func (s *Service) Ideas(ctx context.Context, sessionID string) []model.Idea {
	return s.store.Ideas(ctx, sessionID)
}

// VoteStats recomputes win/loss standings from all recorded votes.
func (s *Service) VoteStats(ctx context.Context, sessionID string) []types.VoteStat {
	return votestats.Compute(s.store.Ideas(ctx, sessionID), s.store.Votes(ctx, sessionID))
}

// BordaRanking recomputes the Borda consensus from all stored rankings.
func (s *Service) BordaRanking(ctx context.Context, sessionID string) []types.BordaScore {
	return borda.Compute(s.store.Ideas(ctx, sessionID), s.store.Rankings(ctx, sessionID))
}

// MarketplaceScores recomputes coin standings from all stored allocations.
func (s *Service) MarketplaceScores(ctx context.Context, sessionID string) []types.MarketScore {
	return marketplace.Scores(s.store.Ideas(ctx, sessionID), s.store.Allocations(ctx, sessionID))
}

// MarketplaceProgress reports how much of the roster has spent its full
// budget.
func (s *Service) MarketplaceProgress(ctx context.Context, sessionID string) types.Progress {
	return marketplace.Progress(s.store.Participants(ctx, sessionID), s.store.Allocations(ctx, sessionID))
}

// RemainingBudget returns the coins a participant has left to spend.
func (s *Service) RemainingBudget(ctx context.Context, sessionID, participantID string) int {
	return marketplace.Remaining(participantID, s.store.ParticipantAllocations(ctx, sessionID, participantID), s.coinBudget)
}

// MatrixPosition returns the canonical placement of an idea, defaulting to
// the configured center for ideas nobody has moved.
func (s *Service) MatrixPosition(ctx context.Context, sessionID, ideaID string) types.Position {
	pos, _ := s.store.Position(ctx, sessionID, ideaID)
	return types.Position{X: pos.X, Y: pos.Y}
}

// Export renders one modality's current standing as plain text.
// Modality is one of votes, borda, marketplace.
func (s *Service) Export(ctx context.Context, sessionID, modality string) (string, error) {
	ideas := s.store.Ideas(ctx, sessionID)
	switch modality {
	case "votes":
		return s.exporter.VoteStats(sessionID, ideas, s.VoteStats(ctx, sessionID)), nil
	case "borda":
		return s.exporter.Borda(sessionID, ideas, s.BordaRanking(ctx, sessionID)), nil
	case "marketplace":
		return s.exporter.Marketplace(sessionID, ideas, s.MarketplaceScores(ctx, sessionID)), nil
	default:
		return "", fmt.Errorf("%w: unknown modality %q", ErrUnknownModality, modality)
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"coinBudget":  s.coinBudget,
	}

	if s.started {
		queueLen := s.eventQueue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["hubConnections"] = s.hub.TotalConnections()
		stats["hubSessions"] = s.hub.SessionCount()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, marketplace.ErrBudgetExceeded):
		return "budget_exceeded"
	case errors.Is(err, marketplace.ErrNegativeAllocation):
		return "negative_allocation"
	default:
		return "invalid"
	}
}
