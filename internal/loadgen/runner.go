package loadgen

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// Marketplace budget the service enforces; kept in sync with the server's
// default configuration.
const coinBudget = 100

// Run drives a complete decision session: seed, vote, rank, allocate,
// stream matrix moves, then verify every aggregate.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{StartTime: time.Now()}

	if config.SessionID == "" {
		config.SessionID = "loadgen-" + uuid.New().String()
	}

	log.Printf("Driving session %s against %s", config.SessionID, config.BaseURL)

	ideas := generateIdeas(config)
	participants := generateParticipants(config)
	ideaIDs := make([]string, len(ideas))
	for i, idea := range ideas {
		ideaIDs[i] = idea.ID
	}

	if err := seedSession(ctx, config, ideas, participants, stats); err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}

	votes := generateVotes(config, ideaIDs, participants)
	if err := submitVotes(ctx, config, votes, stats); err != nil {
		return fmt.Errorf("vote submission failed: %w", err)
	}

	if err := submitRankings(ctx, config, participants, ideaIDs, stats); err != nil {
		return fmt.Errorf("ranking submission failed: %w", err)
	}

	if err := submitAllocations(ctx, config, participants, ideaIDs, coinBudget, stats); err != nil {
		return fmt.Errorf("allocation submission failed: %w", err)
	}

	if config.Moves > 0 {
		if err := runWebsocketClients(ctx, config, ideaIDs, stats); err != nil {
			return fmt.Errorf("websocket run failed: %w", err)
		}
	}

	if err := verifyAggregates(ctx, config, coinBudget, stats); err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	printSummary(config, stats)
	return nil
}

// printSummary logs the final run statistics.
func printSummary(config *Config, stats *Stats) {
	log.Printf("==========================================")
	log.Printf("Session:           %s", config.SessionID)
	log.Printf("Duration:          %s", stats.Duration.Round(time.Millisecond))
	log.Printf("Ideas seeded:      %d", stats.IdeasCreated)
	log.Printf("Participants:      %d", stats.ParticipantsJoined)
	log.Printf("Votes ok/failed:   %d/%d", stats.VotesSubmitted, stats.VotesFailed)
	log.Printf("Rankings stored:   %d", stats.RankingsSubmitted)
	log.Printf("Allocations:       %d ok, %d rejected", stats.AllocationsStored, stats.AllocationsFailed)
	log.Printf("Matrix moves:      %d sent, %d frames received", stats.MovesSent, stats.FramesReceived)
	if stats.Duration > 0 && stats.VotesSubmitted > 0 {
		log.Printf("Vote throughput:   %.0f votes/sec", float64(stats.VotesSubmitted)/stats.Duration.Seconds())
	}
	log.Printf("==========================================")
}
