package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/quorum/internal/domain/model"
	"github.com/okian/quorum/pkg/metrics"
)

// Default matrix placement for ideas nobody has moved yet.
const (
	defaultPositionX = 50
	defaultPositionY = 50
)

// sessionState holds all mutable data for one session. Access is guarded by
// the owning MemStore's mutex; there is no per-field locking.
type sessionState struct {
	ideas        []model.Idea
	ideaIndex    map[string]int
	participants []string
	roster       map[string]struct{}
	votes        []model.PairwiseVote
	rankings     map[string]model.Ranking
	allocations  map[string]map[string]int // participant -> idea -> coins
	positions    map[string]model.MatrixPosition
}

// MemStore implements Store with in-memory per-session buckets. It stands in
// for the durable store behind the same interface; a single mutex serializes
// writes so position updates apply in receipt order at the store boundary.
type MemStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionState

	defaultX float64
	defaultY float64
}

// NewMemStore creates an empty store with configuration options.
func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{
		sessions: make(map[string]*sessionState),
		defaultX: defaultPositionX,
		defaultY: defaultPositionY,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// session returns the bucket for sessionID, creating it on first write.
// Must be called with s.mu held for writing.
func (s *MemStore) session(sessionID string) *sessionState {
	st, ok := s.sessions[sessionID]
	if !ok {
		st = &sessionState{
			ideaIndex:   make(map[string]int),
			roster:      make(map[string]struct{}),
			rankings:    make(map[string]model.Ranking),
			allocations: make(map[string]map[string]int),
			positions:   make(map[string]model.MatrixPosition),
		}
		s.sessions[sessionID] = st
	}
	return st
}

// AddIdea registers an idea, preserving insertion order.
func (s *MemStore) AddIdea(ctx context.Context, idea model.Idea) error {
	if idea.ID == "" || idea.SessionID == "" {
		return fmt.Errorf("add idea: %w", ErrEmptyID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.session(idea.SessionID)
	if _, exists := st.ideaIndex[idea.ID]; exists {
		// Re-registration keeps the original slot; content is immutable.
		return nil
	}
	st.ideaIndex[idea.ID] = len(st.ideas)
	st.ideas = append(st.ideas, idea)
	metrics.UpdateTotalIdeas(s.totalIdeasLocked())
	return nil
}

// Idea returns a single idea by id.
func (s *MemStore) Idea(ctx context.Context, sessionID, ideaID string) (model.Idea, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sessions[sessionID]
	if !ok {
		return model.Idea{}, fmt.Errorf("idea %s: %w", ideaID, ErrNotFound)
	}
	i, ok := st.ideaIndex[ideaID]
	if !ok {
		return model.Idea{}, fmt.Errorf("idea %s: %w", ideaID, ErrNotFound)
	}
	return st.ideas[i], nil
}

// Ideas returns the session's ideas in insertion order.
func (s *MemStore) Ideas(ctx context.Context, sessionID string) []model.Idea {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	out := make([]model.Idea, len(st.ideas))
	copy(out, st.ideas)
	return out
}

// AddParticipant registers a participant on the roster. Idempotent.
func (s *MemStore) AddParticipant(ctx context.Context, sessionID, participantID string) error {
	if sessionID == "" || participantID == "" {
		return fmt.Errorf("add participant: %w", ErrEmptyID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.session(sessionID)
	if _, exists := st.roster[participantID]; exists {
		return nil
	}
	st.roster[participantID] = struct{}{}
	st.participants = append(st.participants, participantID)
	return nil
}

// Participants returns the roster in insertion order.
func (s *MemStore) Participants(ctx context.Context, sessionID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	out := make([]string, len(st.participants))
	copy(out, st.participants)
	return out
}

// AppendVote records a pairwise comparison outcome.
func (s *MemStore) AppendVote(ctx context.Context, sessionID string, vote model.PairwiseVote) error {
	if sessionID == "" {
		return fmt.Errorf("append vote: %w", ErrEmptyID)
	}
	if vote.At.IsZero() {
		vote.At = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.session(sessionID)
	st.votes = append(st.votes, vote)
	metrics.RecordVoteRecorded()
	return nil
}

// Votes returns all pairwise votes in receipt order.
func (s *MemStore) Votes(ctx context.Context, sessionID string) []model.PairwiseVote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	out := make([]model.PairwiseVote, len(st.votes))
	copy(out, st.votes)
	return out
}

// PutRanking stores a participant's ranking, last write wins at the
// participant granularity.
func (s *MemStore) PutRanking(ctx context.Context, sessionID string, ranking model.Ranking) error {
	if sessionID == "" || ranking.ParticipantID == "" {
		return fmt.Errorf("put ranking: %w", ErrEmptyID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.session(sessionID)
	ids := make([]string, len(ranking.IdeaIDs))
	copy(ids, ranking.IdeaIDs)
	ranking.IdeaIDs = ids
	st.rankings[ranking.ParticipantID] = ranking
	metrics.RecordRankingStored()
	return nil
}

// Rankings returns one ranking per participant, ordered by participant id.
func (s *MemStore) Rankings(ctx context.Context, sessionID string) []model.Ranking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	out := make([]model.Ranking, 0, len(st.rankings))
	for _, r := range st.rankings {
		out = append(out, r)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ParticipantID < out[b].ParticipantID })
	return out
}

// ReplaceAllocations atomically replaces a participant's allocation set.
func (s *MemStore) ReplaceAllocations(ctx context.Context, sessionID, participantID string, allocs []model.Allocation) error {
	if sessionID == "" || participantID == "" {
		return fmt.Errorf("replace allocations: %w", ErrEmptyID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.session(sessionID)
	next := make(map[string]int, len(allocs))
	for _, a := range allocs {
		next[a.IdeaID] = a.Coins
	}
	st.allocations[participantID] = next
	metrics.RecordAllocationStored()
	return nil
}

// Allocations returns every record, ordered by participant id then idea id.
func (s *MemStore) Allocations(ctx context.Context, sessionID string) []model.Allocation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	var out []model.Allocation
	for pid, byIdea := range st.allocations {
		for ideaID, coins := range byIdea {
			out = append(out, model.Allocation{ParticipantID: pid, IdeaID: ideaID, Coins: coins})
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].ParticipantID != out[b].ParticipantID {
			return out[a].ParticipantID < out[b].ParticipantID
		}
		return out[a].IdeaID < out[b].IdeaID
	})
	return out
}

// ParticipantAllocations returns one participant's records ordered by idea id.
func (s *MemStore) ParticipantAllocations(ctx context.Context, sessionID, participantID string) []model.Allocation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	byIdea := st.allocations[participantID]
	out := make([]model.Allocation, 0, len(byIdea))
	for ideaID, coins := range byIdea {
		out = append(out, model.Allocation{ParticipantID: participantID, IdeaID: ideaID, Coins: coins})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].IdeaID < out[b].IdeaID })
	return out
}

// Position returns the canonical matrix position, or the default placement
// when the idea was never moved.
func (s *MemStore) Position(ctx context.Context, sessionID, ideaID string) (model.MatrixPosition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if st, ok := s.sessions[sessionID]; ok {
		if pos, ok := st.positions[ideaID]; ok {
			return pos, true
		}
	}
	return model.MatrixPosition{IdeaID: ideaID, X: s.defaultX, Y: s.defaultY}, false
}

// SetPosition clamps and overwrites the canonical position unconditionally.
func (s *MemStore) SetPosition(ctx context.Context, sessionID, ideaID string, x, y float64) (model.MatrixPosition, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	pos := model.MatrixPosition{
		IdeaID: ideaID,
		X:      model.ClampPercent(x),
		Y:      model.ClampPercent(y),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.session(sessionID)
	st.positions[ideaID] = pos
	metrics.RecordPositionPersisted()
	return pos, nil
}

// IdeaCount returns the number of ideas tracked for the session.
func (s *MemStore) IdeaCount(ctx context.Context, sessionID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sessions[sessionID]
	if !ok {
		return 0
	}
	return len(st.ideas)
}

// totalIdeasLocked sums ideas across sessions. Must be called with s.mu held.
func (s *MemStore) totalIdeasLocked() int {
	total := 0
	for _, st := range s.sessions {
		total += len(st.ideas)
	}
	return total
}
