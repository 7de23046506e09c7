// Package marketplace validates and aggregates fixed-budget coin allocations.
//
// All functions are pure and stateless; validation runs before any
// allocation record is persisted so invalid submissions are rejected
// all-or-nothing per participant.
package marketplace

import (
	"sort"

	"github.com/okian/quorum/internal/domain/model"
	"github.com/okian/quorum/internal/domain/types"
)

// DefaultBudget is the coin budget each participant may spend per session.
const DefaultBudget = 100

// Validate checks one participant's proposed allocation set against the
// budget. It fails with a NegativeError if any coin value is negative and
// a BudgetError if the proposed sum exceeds budget. The allocations must
// all belong to the same participant.
func Validate(allocs []model.Allocation, budget int) error {
	total := 0
	for _, a := range allocs {
		if a.Coins < 0 {
			return &NegativeError{ParticipantID: a.ParticipantID, IdeaID: a.IdeaID, Coins: a.Coins}
		}
		total += a.Coins
	}
	if total > budget {
		var pid string
		if len(allocs) > 0 {
			pid = allocs[0].ParticipantID
		}
		return &BudgetError{ParticipantID: pid, Proposed: total, Budget: budget}
	}
	return nil
}

// Scores sums coins per idea across all allocation records. Every known
// idea appears in the output; unfunded ideas score zero with an average
// of 0. Allocations referencing unknown ideas are ignored.
//
// Output order: total coins descending, then participant count descending,
// then the original idea input order.
func Scores(ideas []model.Idea, allocs []model.Allocation) []types.MarketScore {
	index := make(map[string]int, len(ideas))
	scores := make([]types.MarketScore, len(ideas))
	for i, idea := range ideas {
		index[idea.ID] = i
		scores[i] = types.MarketScore{IdeaID: idea.ID}
	}

	funders := make([]map[string]struct{}, len(ideas))
	for _, a := range allocs {
		i, ok := index[a.IdeaID]
		if !ok {
			continue
		}
		scores[i].TotalCoins += a.Coins
		if funders[i] == nil {
			funders[i] = make(map[string]struct{})
		}
		funders[i][a.ParticipantID] = struct{}{}
	}

	for i := range scores {
		scores[i].ParticipantCount = len(funders[i])
		if scores[i].ParticipantCount > 0 {
			scores[i].AverageCoins = float64(scores[i].TotalCoins) / float64(scores[i].ParticipantCount)
		}
	}

	sort.SliceStable(scores, func(a, b int) bool {
		if scores[a].TotalCoins != scores[b].TotalCoins {
			return scores[a].TotalCoins > scores[b].TotalCoins
		}
		return scores[a].ParticipantCount > scores[b].ParticipantCount
	})

	return scores
}

// Progress reports how many of the known participants have completed the
// marketplace. A participant counts as completed once they hold at least
// one allocation record; fully spending the budget is not required.
// IsComplete is true only when the roster is non-empty and everyone on it
// has completed.
func Progress(participantIDs []string, allocs []model.Allocation) types.Progress {
	funded := make(map[string]struct{}, len(allocs))
	for _, a := range allocs {
		funded[a.ParticipantID] = struct{}{}
	}

	p := types.Progress{Total: len(participantIDs)}
	for _, id := range participantIDs {
		if _, ok := funded[id]; ok {
			p.Completed++
		}
	}
	if p.Total > 0 {
		p.Percent = int(float64(p.Completed)/float64(p.Total)*100 + 0.5)
		p.IsComplete = p.Completed == p.Total
	}
	return p
}

// Remaining returns the participant's unspent budget. A negative result is
// possible only when validation was bypassed; callers should treat that as
// a data-integrity warning, not a computed-value error.
func Remaining(participantID string, allocs []model.Allocation, budget int) int {
	spent := 0
	for _, a := range allocs {
		if a.ParticipantID == participantID {
			spent += a.Coins
		}
	}
	return budget - spent
}
