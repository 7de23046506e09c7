// Package export renders aggregator output to a stable human-readable
// snapshot for audit and download. Output is grouped by idea category and
// byte-identical for identical input and clock.
package export

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/okian/quorum/internal/domain/model"
	"github.com/okian/quorum/internal/domain/types"
)

// uncategorized is the trailing section for ideas without a category.
const uncategorized = "Uncategorized"

// Option applies a configuration option to the Serializer.
type Option func(*Serializer)

// WithClock injects the timestamp source. Tests pass a fixed clock to get
// reproducible output.
func WithClock(clock func() time.Time) Option {
	return func(s *Serializer) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// Serializer renders sorted aggregator rows to plain text.
type Serializer struct {
	clock func() time.Time
}

// NewSerializer creates a Serializer with configuration options.
func NewSerializer(opts ...Option) *Serializer {
	s := &Serializer{clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// row pairs an idea id with its rendered detail line, in aggregator order.
type row struct {
	ideaID string
	detail string
}

// VoteStats renders pairwise vote statistics in the order given.
func (s *Serializer) VoteStats(sessionID string, ideas []model.Idea, stats []types.VoteStat) string {
	rows := make([]row, len(stats))
	for i, st := range stats {
		rows[i] = row{
			ideaID: st.IdeaID,
			detail: fmt.Sprintf("wins %d, losses %d, win rate %.2f", st.Wins, st.Losses, st.WinRate),
		}
	}
	return s.render("Pairwise Votes", sessionID, ideas, rows)
}

// Borda renders the Borda consensus ranking in the order given.
func (s *Serializer) Borda(sessionID string, ideas []model.Idea, scores []types.BordaScore) string {
	rows := make([]row, len(scores))
	for i, sc := range scores {
		rows[i] = row{
			ideaID: sc.IdeaID,
			detail: fmt.Sprintf("score %d, avg rank %.2f, ranked by %d", sc.TotalScore, sc.AverageRank, sc.ParticipantCount),
		}
	}
	return s.render("Borda Ranking", sessionID, ideas, rows)
}

// Marketplace renders coin marketplace results in the order given.
func (s *Serializer) Marketplace(sessionID string, ideas []model.Idea, scores []types.MarketScore) string {
	rows := make([]row, len(scores))
	for i, sc := range scores {
		rows[i] = row{
			ideaID: sc.IdeaID,
			detail: fmt.Sprintf("%d coins from %d participants, avg %.2f", sc.TotalCoins, sc.ParticipantCount, sc.AverageCoins),
		}
	}
	return s.render("Coin Marketplace", sessionID, ideas, rows)
}

// render groups rows by effective category (alphabetical), keeping each
// category's rows in aggregator order, with Uncategorized last.
func (s *Serializer) render(title, sessionID string, ideas []model.Idea, rows []row) string {
	byID := make(map[string]model.Idea, len(ideas))
	for _, idea := range ideas {
		byID[idea.ID] = idea
	}

	grouped := make(map[string][]row)
	for _, r := range rows {
		cat := uncategorized
		if idea, ok := byID[r.ideaID]; ok && idea.EffectiveCategory() != "" {
			cat = idea.EffectiveCategory()
		}
		grouped[cat] = append(grouped[cat], r)
	}

	categories := make([]string, 0, len(grouped))
	for cat := range grouped {
		if cat != uncategorized {
			categories = append(categories, cat)
		}
	}
	sort.Strings(categories)
	if _, ok := grouped[uncategorized]; ok {
		categories = append(categories, uncategorized)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s Export\n", title)
	fmt.Fprintf(&b, "Session: %s\n", sessionID)
	fmt.Fprintf(&b, "Generated: %s\n", s.clock().UTC().Format(time.RFC3339))

	for _, cat := range categories {
		fmt.Fprintf(&b, "\n## %s\n", cat)
		for i, r := range grouped[cat] {
			content := r.ideaID
			if idea, ok := byID[r.ideaID]; ok && idea.Content != "" {
				content = idea.Content
			}
			fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, content, r.detail)
		}
	}
	return b.String()
}
