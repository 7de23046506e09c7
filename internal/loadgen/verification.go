package loadgen

import (
	"context"
	"fmt"
	"log"
	"net/url"
)

// verifyAggregates fetches every read endpoint and checks the numbers
// against what the run actually submitted.
func verifyAggregates(ctx context.Context, config *Config, budget int, stats *Stats) error {
	client := newHTTPClient(config.Timeout)
	q := "?session_id=" + url.QueryEscape(config.SessionID)

	log.Printf("Verifying aggregates for session %s...", config.SessionID)

	var voteRows []voteStat
	if err := getJSON(client, config.BaseURL+"/votes/stats"+q, &voteRows); err != nil {
		return fmt.Errorf("vote stats fetch failed: %w", err)
	}
	if len(voteRows) != stats.IdeasCreated {
		return fmt.Errorf("vote stats rows = %d, want %d (one per idea)", len(voteRows), stats.IdeasCreated)
	}
	totalWins := 0
	for _, row := range voteRows {
		totalWins += row.Wins
	}
	if totalWins != stats.VotesSubmitted {
		return fmt.Errorf("total wins = %d, want %d (one per accepted vote)", totalWins, stats.VotesSubmitted)
	}

	var bordaRows []bordaScore
	if err := getJSON(client, config.BaseURL+"/rankings/borda"+q, &bordaRows); err != nil {
		return fmt.Errorf("borda fetch failed: %w", err)
	}
	if len(bordaRows) != stats.IdeasCreated {
		return fmt.Errorf("borda rows = %d, want %d", len(bordaRows), stats.IdeasCreated)
	}
	for _, row := range bordaRows {
		if row.ParticipantCount != stats.RankingsSubmitted {
			return fmt.Errorf("idea %s ranked by %d participants, want %d (full orderings only)",
				row.IdeaID, row.ParticipantCount, stats.RankingsSubmitted)
		}
	}

	var marketRows []marketScore
	if err := getJSON(client, config.BaseURL+"/marketplace/scores"+q, &marketRows); err != nil {
		return fmt.Errorf("marketplace scores fetch failed: %w", err)
	}
	totalCoins := 0
	for _, row := range marketRows {
		totalCoins += row.TotalCoins
	}
	wantCoins := stats.AllocationsStored * budget
	if totalCoins != wantCoins {
		return fmt.Errorf("total coins = %d, want %d (%d participants x %d budget)",
			totalCoins, wantCoins, stats.AllocationsStored, budget)
	}

	var progress progressResponse
	if err := getJSON(client, config.BaseURL+"/marketplace/progress"+q, &progress); err != nil {
		return fmt.Errorf("progress fetch failed: %w", err)
	}
	if progress.Total != stats.ParticipantsJoined {
		return fmt.Errorf("progress total = %d, want %d", progress.Total, stats.ParticipantsJoined)
	}
	if progress.Completed != stats.AllocationsStored {
		return fmt.Errorf("progress completed = %d, want %d", progress.Completed, stats.AllocationsStored)
	}

	// Exports only need to come back non-empty; content is covered by the
	// service's own tests.
	for _, modality := range []string{"votes", "borda", "marketplace"} {
		resp, err := client.Get(config.BaseURL + "/export" + q + "&modality=" + modality)
		if err != nil {
			return fmt.Errorf("export %s fetch failed: %w", modality, err)
		}
		body, err := readResponseBody(resp)
		if err != nil {
			return fmt.Errorf("export %s read failed: %w", modality, err)
		}
		if resp.StatusCode != StatusOK || len(body) == 0 {
			return fmt.Errorf("export %s: status %d, %d bytes", modality, resp.StatusCode, len(body))
		}
	}

	log.Printf("All aggregates consistent")
	return nil
}
