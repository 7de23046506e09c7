// Package votestats computes win/loss statistics from pairwise vote events.
//
// Compute is a pure function of its inputs: it only reads shared event data
// and allocates fresh result structures, so it is safe to call concurrently
// without locking.
package votestats

import (
	"sort"

	"github.com/okian/quorum/internal/domain/model"
	"github.com/okian/quorum/internal/domain/types"
)

// Compute produces one VoteStat per idea from the full list of pairwise
// vote events. Every known idea appears in the output; ideas with no
// decisions score zero wins, zero losses and a win rate of exactly 0.
// Votes referencing unknown ideas are ignored rather than rejected.
//
// Output order: win rate descending, then wins descending, then the
// original idea input order as the final deterministic tiebreak.
func Compute(ideas []model.Idea, votes []model.PairwiseVote) []types.VoteStat {
	index := make(map[string]int, len(ideas))
	stats := make([]types.VoteStat, len(ideas))
	for i, idea := range ideas {
		index[idea.ID] = i
		stats[i] = types.VoteStat{IdeaID: idea.ID}
	}

	for _, v := range votes {
		if i, ok := index[v.WinnerID]; ok {
			stats[i].Wins++
		}
		if i, ok := index[v.LoserID]; ok {
			stats[i].Losses++
		}
	}

	// Input order survives index assignment, so stable sort keeps the
	// insertion-order tiebreak.
	for i := range stats {
		if total := stats[i].Wins + stats[i].Losses; total > 0 {
			stats[i].WinRate = float64(stats[i].Wins) / float64(total)
		}
	}

	sort.SliceStable(stats, func(a, b int) bool {
		if stats[a].WinRate != stats[b].WinRate {
			return stats[a].WinRate > stats[b].WinRate
		}
		return stats[a].Wins > stats[b].Wins
	})

	return stats
}
