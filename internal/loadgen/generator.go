package loadgen

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

// Idea content templates; the generator cycles through these so exported
// reports stay readable.
var ideaTopics = []string{
	"Automate the weekly report pipeline",
	"Open a self-serve sandbox environment",
	"Consolidate the duplicate dashboards",
	"Run a quarterly customer council",
	"Introduce async design reviews",
	"Publish the internal API catalog",
	"Rotate on-call across all teams",
	"Archive stale repositories",
}

var categories = []string{"process", "tooling", "culture", ""}

// randomInt returns a uniform random int in [0, n) using crypto/rand.
func randomInt(n int) int {
	if n <= 0 {
		return 0
	}
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// generateIdeas produces idea submissions with unique ids.
func generateIdeas(config *Config) []ideaRequest {
	ideas := make([]ideaRequest, config.Ideas)
	for i := range ideas {
		ideas[i] = ideaRequest{
			SessionID: config.SessionID,
			ID:        uuid.New().String(),
			Content:   fmt.Sprintf("%s (#%d)", ideaTopics[i%len(ideaTopics)], i+1),
			Category:  categories[i%len(categories)],
		}
	}
	return ideas
}

// generateParticipants produces unique participant ids.
func generateParticipants(config *Config) []string {
	ids := make([]string, config.Participants)
	for i := range ids {
		ids[i] = uuid.New().String()
	}
	return ids
}

// generateVotes produces random pairwise comparisons between distinct ideas.
func generateVotes(config *Config, ideaIDs, participantIDs []string) []voteRequest {
	if len(ideaIDs) < 2 || len(participantIDs) == 0 {
		return nil
	}
	votes := make([]voteRequest, config.Votes)
	for i := range votes {
		a := randomInt(len(ideaIDs))
		b := randomInt(len(ideaIDs) - 1)
		if b >= a {
			b++
		}
		votes[i] = voteRequest{
			SessionID: config.SessionID,
			VoterID:   participantIDs[randomInt(len(participantIDs))],
			WinnerID:  ideaIDs[a],
			LoserID:   ideaIDs[b],
		}
	}
	return votes
}

// generateRanking produces a random full ordering of the session's ideas.
func generateRanking(config *Config, participantID string, ideaIDs []string) rankingRequest {
	order := make([]string, len(ideaIDs))
	copy(order, ideaIDs)
	// Fisher-Yates
	for i := len(order) - 1; i > 0; i-- {
		j := randomInt(i + 1)
		order[i], order[j] = order[j], order[i]
	}
	return rankingRequest{
		SessionID:     config.SessionID,
		ParticipantID: participantID,
		IdeaIDs:       order,
	}
}

// generateAllocations spends exactly the full budget across a random subset
// of ideas so the progress endpoint can reach completion.
func generateAllocations(config *Config, participantID string, ideaIDs []string, budget int) allocationRequest {
	req := allocationRequest{
		SessionID:     config.SessionID,
		ParticipantID: participantID,
	}
	remaining := budget
	picks := 3 + randomInt(3)
	if picks > len(ideaIDs) {
		picks = len(ideaIDs)
	}
	// Distinct ideas so the full budget lands; duplicate picks would
	// overwrite each other server-side.
	chosen := make([]string, len(ideaIDs))
	copy(chosen, ideaIDs)
	for i := len(chosen) - 1; i > 0; i-- {
		j := randomInt(i + 1)
		chosen[i], chosen[j] = chosen[j], chosen[i]
	}
	for i := 0; i < picks && remaining > 0; i++ {
		coins := remaining
		if i < picks-1 {
			coins = 1 + randomInt(remaining)
		}
		req.Allocations = append(req.Allocations, allocationItem{
			IdeaID: chosen[i],
			Coins:  coins,
		})
		remaining -= coins
	}
	return req
}
