// Package repository defines the session store interface and errors.
package repository

import (
	"context"

	"github.com/okian/quorum/internal/domain/model"
)

// Store provides read/write access to per-session decision data. Writes for
// the same session are applied in receipt order at the store boundary;
// position writes are last-write-wins with no history.
type Store interface {
	// AddIdea registers an idea in its session. Insertion order is preserved
	// and drives the deterministic tiebreak of every aggregator.
	AddIdea(ctx context.Context, idea model.Idea) error

	// Idea returns a single idea by id. Returns ErrNotFound if unknown.
	Idea(ctx context.Context, sessionID, ideaID string) (model.Idea, error)

	// Ideas returns the session's ideas in insertion order.
	Ideas(ctx context.Context, sessionID string) []model.Idea

	// AddParticipant registers a participant on the session roster.
	AddParticipant(ctx context.Context, sessionID, participantID string) error

	// Participants returns the roster in insertion order.
	Participants(ctx context.Context, sessionID string) []string

	// AppendVote records one pairwise comparison outcome. Append-only;
	// duplicates are stored as-is.
	AppendVote(ctx context.Context, sessionID string, vote model.PairwiseVote) error

	// Votes returns all recorded pairwise votes in receipt order.
	Votes(ctx context.Context, sessionID string) []model.PairwiseVote

	// PutRanking stores a participant's ranking, replacing any prior one
	// from the same participant.
	PutRanking(ctx context.Context, sessionID string, ranking model.Ranking) error

	// Rankings returns one ranking per participant, ordered by participant
	// id for determinism.
	Rankings(ctx context.Context, sessionID string) []model.Ranking

	// ReplaceAllocations atomically replaces a participant's full allocation
	// set. Callers validate before persisting; the store applies
	// all-or-nothing.
	ReplaceAllocations(ctx context.Context, sessionID, participantID string, allocs []model.Allocation) error

	// Allocations returns every allocation record in the session, ordered
	// by participant id then idea id.
	Allocations(ctx context.Context, sessionID string) []model.Allocation

	// ParticipantAllocations returns one participant's records ordered by
	// idea id.
	ParticipantAllocations(ctx context.Context, sessionID, participantID string) []model.Allocation

	// Position returns the canonical matrix position for an idea. The bool
	// reports whether a position was ever stored; when false the returned
	// value is the configured default placement.
	Position(ctx context.Context, sessionID, ideaID string) (model.MatrixPosition, bool)

	// SetPosition clamps the coordinates to [0,100] and overwrites any
	// prior value unconditionally. Returns the stored position. An error
	// is transient (durable-store I/O) and safe to retry.
	SetPosition(ctx context.Context, sessionID, ideaID string, x, y float64) (model.MatrixPosition, error)

	// IdeaCount returns the number of ideas tracked for the session.
	IdeaCount(ctx context.Context, sessionID string) int
}
