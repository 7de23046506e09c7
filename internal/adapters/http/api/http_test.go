package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	api "github.com/okian/quorum/internal/adapters/http/api"
	"github.com/okian/quorum/internal/adapters/repository"
	"github.com/okian/quorum/internal/domain/marketplace"
	"github.com/okian/quorum/internal/domain/model"
	"github.com/okian/quorum/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

// mockDeps implements api.Dependencies and api.StatsProvider with canned
// responses and call capture.
type mockDeps struct {
	ideas       map[string]model.Idea
	votes       []model.PairwiseVote
	rankings    map[string][]string
	allocations map[string][]model.Allocation
	positions   map[string]types.Position

	allocErr error
}

func newMockDeps() *mockDeps {
	return &mockDeps{
		ideas:       make(map[string]model.Idea),
		rankings:    make(map[string][]string),
		allocations: make(map[string][]model.Allocation),
		positions:   make(map[string]types.Position),
	}
}

func (m *mockDeps) AddIdea(ctx context.Context, sessionID, id, content, category string) (model.Idea, error) {
	if id == "" {
		id = fmt.Sprintf("idea-%d", len(m.ideas)+1)
	}
	idea := model.Idea{ID: id, SessionID: sessionID, Content: content, Category: category}
	m.ideas[id] = idea
	return idea, nil
}

func (m *mockDeps) AddParticipant(ctx context.Context, sessionID, participantID string) error {
	return nil
}

func (m *mockDeps) SubmitVote(ctx context.Context, sessionID, voterID, winnerID, loserID string) error {
	if _, ok := m.ideas[winnerID]; !ok {
		return fmt.Errorf("winner %q: %w", winnerID, repository.ErrNotFound)
	}
	if _, ok := m.ideas[loserID]; !ok {
		return fmt.Errorf("loser %q: %w", loserID, repository.ErrNotFound)
	}
	m.votes = append(m.votes, model.PairwiseVote{VoterID: voterID, WinnerID: winnerID, LoserID: loserID})
	return nil
}

func (m *mockDeps) SubmitRanking(ctx context.Context, sessionID, participantID string, ideaIDs []string) error {
	m.rankings[participantID] = ideaIDs
	return nil
}

func (m *mockDeps) SubmitAllocations(ctx context.Context, sessionID, participantID string, allocs []model.Allocation) error {
	if m.allocErr != nil {
		return m.allocErr
	}
	m.allocations[participantID] = allocs
	return nil
}

func (m *mockDeps) SetMatrixPosition(ctx context.Context, sessionID, ideaID string, x, y float64) (types.Position, error) {
	if _, ok := m.ideas[ideaID]; !ok {
		return types.Position{}, fmt.Errorf("idea %q: %w", ideaID, repository.ErrNotFound)
	}
	pos := types.Position{X: model.ClampPercent(x), Y: model.ClampPercent(y)}
	m.positions[ideaID] = pos
	return pos, nil
}

func (m *mockDeps) Ideas(ctx context.Context, sessionID string) []model.Idea {
	out := make([]model.Idea, 0, len(m.ideas))
	for _, idea := range m.ideas {
		out = append(out, idea)
	}
	return out
}

func (m *mockDeps) VoteStats(ctx context.Context, sessionID string) []types.VoteStat {
	return []types.VoteStat{{IdeaID: "idea-1", Wins: 2, Losses: 1, WinRate: 2.0 / 3.0}}
}

func (m *mockDeps) BordaRanking(ctx context.Context, sessionID string) []types.BordaScore {
	return []types.BordaScore{{IdeaID: "idea-1", TotalScore: 5, AverageRank: 1.5, ParticipantCount: 2}}
}

func (m *mockDeps) MarketplaceScores(ctx context.Context, sessionID string) []types.MarketScore {
	return []types.MarketScore{{IdeaID: "idea-1", TotalCoins: 80, AverageCoins: 40, ParticipantCount: 2}}
}

func (m *mockDeps) MarketplaceProgress(ctx context.Context, sessionID string) types.Progress {
	return types.Progress{Completed: 2, Total: 3, Percent: 67}
}

func (m *mockDeps) RemainingBudget(ctx context.Context, sessionID, participantID string) int {
	return 40
}

func (m *mockDeps) MatrixPosition(ctx context.Context, sessionID, ideaID string) types.Position {
	if pos, ok := m.positions[ideaID]; ok {
		return pos
	}
	return types.Position{X: 50, Y: 50}
}

func (m *mockDeps) Export(ctx context.Context, sessionID, modality string) (string, error) {
	switch modality {
	case "votes", "borda", "marketplace":
		return "Export\nSession: " + sessionID + "\n", nil
	default:
		return "", fmt.Errorf("unknown modality %q", modality)
	}
}

func (m *mockDeps) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true}
}

func newTestServer(deps *mockDeps) *httptest.Server {
	mux := http.NewServeMux()
	server := api.NewServer(deps, deps)
	server.Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode failed: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do failed: %v", err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestIdeasEndpoint(t *testing.T) {
	Convey("Given the API server", t, func() {
		deps := newMockDeps()
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When posting a valid idea", func() {
			resp, body := doJSON(t, http.MethodPost, srv.URL+"/ideas", map[string]string{
				"session_id": "s1",
				"content":    "Automate the reports",
				"category":   "tooling",
			})

			Convey("Then it is created with a generated id", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusCreated)
				So(body["id"], ShouldNotBeEmpty)
			})
		})

		Convey("When posting an idea without content", func() {
			resp, body := doJSON(t, http.MethodPost, srv.URL+"/ideas", map[string]string{
				"session_id": "s1",
			})

			Convey("Then it is rejected as a bad request", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				So(body["code"], ShouldEqual, "bad_request")
			})
		})

		Convey("When listing ideas without a session id", func() {
			resp, _ := doJSON(t, http.MethodGet, srv.URL+"/ideas", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestVotesEndpoint(t *testing.T) {
	Convey("Given a server with two ideas", t, func() {
		deps := newMockDeps()
		_, _ = deps.AddIdea(context.Background(), "s1", "a", "Idea A", "")
		_, _ = deps.AddIdea(context.Background(), "s1", "b", "Idea B", "")
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When submitting a valid vote", func() {
			resp, body := doJSON(t, http.MethodPost, srv.URL+"/votes", map[string]string{
				"session_id": "s1",
				"voter_id":   "p1",
				"winner_id":  "a",
				"loser_id":   "b",
			})

			Convey("Then it is accepted", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
				So(body["status"], ShouldEqual, "recorded")
				So(len(deps.votes), ShouldEqual, 1)
			})
		})

		Convey("When winner and loser are the same idea", func() {
			resp, _ := doJSON(t, http.MethodPost, srv.URL+"/votes", map[string]string{
				"session_id": "s1",
				"voter_id":   "p1",
				"winner_id":  "a",
				"loser_id":   "a",
			})

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			So(len(deps.votes), ShouldEqual, 0)
		})

		Convey("When voting for an unknown idea", func() {
			resp, body := doJSON(t, http.MethodPost, srv.URL+"/votes", map[string]string{
				"session_id": "s1",
				"voter_id":   "p1",
				"winner_id":  "ghost",
				"loser_id":   "b",
			})

			Convey("Then it maps to 404", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
				So(body["code"], ShouldEqual, "not_found")
			})
		})

		Convey("When fetching vote stats", func() {
			resp, err := http.Get(srv.URL + "/votes/stats?session_id=s1")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			var rows []types.VoteStat
			So(json.NewDecoder(resp.Body).Decode(&rows), ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(len(rows), ShouldEqual, 1)
			So(rows[0].Wins, ShouldEqual, 2)
		})
	})
}

func TestAllocationsEndpoint(t *testing.T) {
	Convey("Given the API server", t, func() {
		deps := newMockDeps()
		srv := newTestServer(deps)
		defer srv.Close()

		payload := map[string]any{
			"session_id":     "s1",
			"participant_id": "p1",
			"allocations": []map[string]any{
				{"idea_id": "a", "coins": 60},
				{"idea_id": "b", "coins": 40},
			},
		}

		Convey("When the set is within budget", func() {
			resp, body := doJSON(t, http.MethodPut, srv.URL+"/allocations", payload)

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(body["status"], ShouldEqual, "stored")
			So(len(deps.allocations["p1"]), ShouldEqual, 2)
		})

		Convey("When the service rejects the set for overspending", func() {
			deps.allocErr = &marketplace.BudgetError{ParticipantID: "p1", Proposed: 110, Budget: 100}
			resp, body := doJSON(t, http.MethodPut, srv.URL+"/allocations", payload)

			Convey("Then the client gets the overshoot detail", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				So(body["code"], ShouldEqual, "budget_exceeded")
				So(body["message"], ShouldContainSubstring, "110")
			})
		})

		Convey("When the service rejects a negative stake", func() {
			deps.allocErr = &marketplace.NegativeError{ParticipantID: "p1", IdeaID: "a", Coins: -5}
			resp, body := doJSON(t, http.MethodPut, srv.URL+"/allocations", payload)

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			So(body["code"], ShouldEqual, "negative_allocation")
		})

		Convey("When the method is wrong", func() {
			resp, _ := doJSON(t, http.MethodPost, srv.URL+"/allocations", payload)
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestMatrixEndpoint(t *testing.T) {
	Convey("Given a server with one idea", t, func() {
		deps := newMockDeps()
		_, _ = deps.AddIdea(context.Background(), "s1", "a", "Idea A", "")
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When putting an out-of-range position", func() {
			resp, body := doJSON(t, http.MethodPut, srv.URL+"/matrix/position", map[string]any{
				"session_id": "s1",
				"idea_id":    "a",
				"x":          150.0,
				"y":          -30.0,
			})

			Convey("Then the stored position comes back clamped", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["x"], ShouldEqual, 100.0)
				So(body["y"], ShouldEqual, 0.0)
			})
		})

		Convey("When getting a never-moved idea", func() {
			resp, body := doJSON(t, http.MethodGet, srv.URL+"/matrix/position?session_id=s1&idea_id=zzz", nil)

			Convey("Then the default placement is returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["x"], ShouldEqual, 50.0)
				So(body["y"], ShouldEqual, 50.0)
			})
		})

		Convey("When putting a position for an unknown idea", func() {
			resp, _ := doJSON(t, http.MethodPut, srv.URL+"/matrix/position", map[string]any{
				"session_id": "s1",
				"idea_id":    "ghost",
				"x":          10.0,
				"y":          10.0,
			})
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestReadEndpoints(t *testing.T) {
	Convey("Given the API server", t, func() {
		deps := newMockDeps()
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When fetching the Borda consensus", func() {
			resp, err := http.Get(srv.URL + "/rankings/borda?session_id=s1")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			var rows []types.BordaScore
			So(json.NewDecoder(resp.Body).Decode(&rows), ShouldBeNil)
			So(rows[0].TotalScore, ShouldEqual, 5)
		})

		Convey("When fetching marketplace progress", func() {
			resp, body := doJSON(t, http.MethodGet, srv.URL+"/marketplace/progress?session_id=s1", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(body["completed"], ShouldEqual, 2.0)
			So(body["percent"], ShouldEqual, 67.0)
		})

		Convey("When fetching the remaining budget without a participant", func() {
			resp, _ := doJSON(t, http.MethodGet, srv.URL+"/marketplace/remaining?session_id=s1", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When exporting a known modality", func() {
			resp, err := http.Get(srv.URL + "/export?session_id=s1&modality=borda")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(resp.Header.Get("Content-Type"), ShouldStartWith, "text/plain")
		})

		Convey("When exporting an unknown modality", func() {
			resp, err := http.Get(srv.URL + "/export?session_id=s1&modality=nope")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When hitting the stats endpoint", func() {
			resp, body := doJSON(t, http.MethodGet, srv.URL+"/stats", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(body["started"], ShouldEqual, true)
		})

		Convey("When hitting healthz", func() {
			resp, err := http.Get(srv.URL + "/healthz")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})
	})
}

func TestRankingsEndpoint(t *testing.T) {
	Convey("Given the API server", t, func() {
		deps := newMockDeps()
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When putting a ranking", func() {
			resp, body := doJSON(t, http.MethodPut, srv.URL+"/rankings", map[string]any{
				"session_id":     "s1",
				"participant_id": "p1",
				"idea_ids":       []string{"b", "a"},
			})

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(body["status"], ShouldEqual, "stored")
			So(deps.rankings["p1"], ShouldResemble, []string{"b", "a"})
		})

		Convey("When the ranking has no participant", func() {
			resp, _ := doJSON(t, http.MethodPut, srv.URL+"/rankings", map[string]any{
				"session_id": "s1",
				"idea_ids":   []string{"a"},
			})
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})
	})
}
