// Package types contains common read shapes returned by query endpoints.
package types

// VoteStat summarizes pairwise comparison outcomes for one idea.
type VoteStat struct {
	IdeaID  string  `json:"idea_id"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	WinRate float64 `json:"win_rate"`
}

// BordaScore is one idea's consensus ranking result.
type BordaScore struct {
	IdeaID           string  `json:"idea_id"`
	TotalScore       int     `json:"total_score"`
	AverageRank      float64 `json:"average_rank"`
	ParticipantCount int     `json:"participant_count"`
}

// MarketScore aggregates coin allocations for one idea.
type MarketScore struct {
	IdeaID           string  `json:"idea_id"`
	TotalCoins       int     `json:"total_coins"`
	AverageCoins     float64 `json:"average_coins"`
	ParticipantCount int     `json:"participant_count"`
}

// Progress reports marketplace completion across the session roster.
type Progress struct {
	Completed  int  `json:"completed"`
	Total      int  `json:"total"`
	Percent    int  `json:"percent"`
	IsComplete bool `json:"is_complete"`
}

// Position is the read shape for a matrix coordinate pair.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
