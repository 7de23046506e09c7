// Package borda computes a Borda-count consensus ranking from
// per-participant ordinal rankings.
package borda

import (
	"math"
	"sort"

	"github.com/okian/quorum/internal/domain/model"
	"github.com/okian/quorum/internal/domain/types"
)

// Compute assigns each idea in a participant's ranking a score of (N - p - 1)
// where N is the number of ideas that participant ranked and p is the
// zero-based position (first place scores N-1). Ideas a participant did not
// rank receive nothing from that participant; partial rankings are never
// penalized beyond not collecting points.
//
// Per idea the output carries the summed total score, the mean 1-based rank
// among participants who ranked it, and how many participants ranked it.
//
// Output order: total score descending, then average rank ascending, then
// the original idea input order. The result is deterministic for identical
// input, including tie-breaks.
func Compute(ideas []model.Idea, rankings []model.Ranking) []types.BordaScore {
	index := make(map[string]int, len(ideas))
	scores := make([]types.BordaScore, len(ideas))
	rankSums := make([]int, len(ideas))
	for i, idea := range ideas {
		index[idea.ID] = i
		scores[i] = types.BordaScore{IdeaID: idea.ID}
	}

	for _, r := range rankings {
		n := len(r.IdeaIDs)
		for p, id := range r.IdeaIDs {
			i, ok := index[id]
			if !ok {
				continue
			}
			scores[i].TotalScore += n - p - 1
			rankSums[i] += p + 1
			scores[i].ParticipantCount++
		}
	}

	for i := range scores {
		if scores[i].ParticipantCount > 0 {
			scores[i].AverageRank = float64(rankSums[i]) / float64(scores[i].ParticipantCount)
		}
	}

	sort.SliceStable(scores, func(a, b int) bool {
		if scores[a].TotalScore != scores[b].TotalScore {
			return scores[a].TotalScore > scores[b].TotalScore
		}
		return effectiveRank(scores[a]) < effectiveRank(scores[b])
	})

	return scores
}

// effectiveRank orders ties on total score. Ideas nobody ranked carry an
// AverageRank of 0 which must not beat a real rank, so they sort last and
// fall back to input order among themselves.
func effectiveRank(s types.BordaScore) float64 {
	if s.ParticipantCount == 0 {
		return math.Inf(1)
	}
	return s.AverageRank
}
