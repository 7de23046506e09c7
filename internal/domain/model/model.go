// Package model contains domain models passed between layers.
package model

import "time"

// Idea is a participant-submitted item being voted on across modalities.
// Aggregators treat ideas as read-only input and never mutate them.
type Idea struct {
	ID               string    // unique id within the session
	SessionID        string    // owning session
	Content          string    // submitted text
	Category         string    // assigned category, may be empty
	CategoryOverride string    // facilitator override, wins over Category
	CreatedAt        time.Time // submission timestamp
}

// EffectiveCategory returns the override when set, else the assigned category.
func (i Idea) EffectiveCategory() string {
	if i.CategoryOverride != "" {
		return i.CategoryOverride
	}
	return i.Category
}

// PairwiseVote records one head-to-head comparison outcome. Append-only;
// duplicates are tolerated downstream, no uniqueness is assumed.
type PairwiseVote struct {
	VoterID  string
	WinnerID string
	LoserID  string
	At       time.Time
}

// Ranking is one participant's ordering of ideas, most-preferred first.
// Resubmission by the same participant replaces the prior ranking.
type Ranking struct {
	ParticipantID string
	IdeaIDs       []string
}

// Allocation is one participant's coin stake on one idea. Upsert semantics
// per (participant, idea); the per-participant sum is capped by the budget.
type Allocation struct {
	ParticipantID string
	IdeaID        string
	Coins         int
}

// MatrixPosition is the canonical shared 2-D placement of an idea on the
// priority matrix. Coordinates are percentages clamped to [0,100].
// Last writer wins; no per-participant copy exists.
type MatrixPosition struct {
	IdeaID string
	X      float64
	Y      float64
}

// ClampPercent confines a matrix coordinate to [0,100]. Out-of-range input
// is clamped, never rejected.
func ClampPercent(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// PositionEvent is the payload flowing from the realtime hub through the
// persistence queue into the position store.
type PositionEvent struct {
	SessionID string
	IdeaID    string
	X         float64
	Y         float64
	ConnID    string // originating connection, excluded from fan-out
}
