package loadgen

import "time"

// Config holds configuration for a simulated decision session.
type Config struct {
	BaseURL      string        // Base URL of the service
	WSBaseURL    string        // Websocket URL; derived from BaseURL when empty
	SessionID    string        // Session to drive; generated when empty
	Ideas        int           // Number of ideas to seed
	Participants int           // Number of simulated participants
	Votes        int           // Number of pairwise votes to submit
	Moves        int           // Number of matrix moves per websocket client
	Workers      int           // Number of concurrent workers
	Timeout      time.Duration // HTTP request timeout
	LogFile      string        // Log file for run output
	Verbose      bool          // Enable verbose logging
}

// Stats holds run statistics.
type Stats struct {
	IdeasCreated       int
	ParticipantsJoined int
	VotesSubmitted     int
	VotesFailed        int
	RankingsSubmitted  int
	AllocationsStored  int
	AllocationsFailed  int
	MovesSent          int
	FramesReceived     int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}

// ideaRequest mirrors the POST /ideas body.
type ideaRequest struct {
	SessionID string `json:"session_id"`
	ID        string `json:"id"`
	Content   string `json:"content"`
	Category  string `json:"category"`
}

// participantRequest mirrors the POST /participants body.
type participantRequest struct {
	SessionID     string `json:"session_id"`
	ParticipantID string `json:"participant_id"`
}

// voteRequest mirrors the POST /votes body.
type voteRequest struct {
	SessionID string `json:"session_id"`
	VoterID   string `json:"voter_id"`
	WinnerID  string `json:"winner_id"`
	LoserID   string `json:"loser_id"`
}

// rankingRequest mirrors the PUT /rankings body.
type rankingRequest struct {
	SessionID     string   `json:"session_id"`
	ParticipantID string   `json:"participant_id"`
	IdeaIDs       []string `json:"idea_ids"`
}

// allocationRequest mirrors the PUT /allocations body.
type allocationRequest struct {
	SessionID     string           `json:"session_id"`
	ParticipantID string           `json:"participant_id"`
	Allocations   []allocationItem `json:"allocations"`
}

type allocationItem struct {
	IdeaID string `json:"idea_id"`
	Coins  int    `json:"coins"`
}

// voteStat mirrors the GET /votes/stats response rows.
type voteStat struct {
	IdeaID  string  `json:"idea_id"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	WinRate float64 `json:"win_rate"`
}

// bordaScore mirrors the GET /rankings/borda response rows.
type bordaScore struct {
	IdeaID           string  `json:"idea_id"`
	TotalScore       int     `json:"total_score"`
	AverageRank      float64 `json:"average_rank"`
	ParticipantCount int     `json:"participant_count"`
}

// marketScore mirrors the GET /marketplace/scores response rows.
type marketScore struct {
	IdeaID           string  `json:"idea_id"`
	TotalCoins       int     `json:"total_coins"`
	AverageCoins     float64 `json:"average_coins"`
	ParticipantCount int     `json:"participant_count"`
}

// progressResponse mirrors the GET /marketplace/progress response.
type progressResponse struct {
	Completed  int  `json:"completed"`
	Total      int  `json:"total"`
	Percent    int  `json:"percent"`
	IsComplete bool `json:"is_complete"`
}
