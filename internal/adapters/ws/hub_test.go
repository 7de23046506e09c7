package ws_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/quorum/internal/adapters/ws"
	"github.com/okian/quorum/internal/domain/model"
	logging "github.com/okian/quorum/pkg/logger"
)

func TestMain(m *testing.M) {
	_ = logging.Init()
	m.Run()
}

// captureEnqueuer records everything the hub hands to the persistence path.
type captureEnqueuer struct {
	mu     sync.Mutex
	events []model.PositionEvent
	accept bool
}

func (e *captureEnqueuer) Enqueue(ctx context.Context, ev model.PositionEvent) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
	return e.accept
}

func (e *captureEnqueuer) all() []model.PositionEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.PositionEvent, len(e.events))
	copy(out, e.events)
	return out
}

type frame struct {
	Type      string  `json:"type"`
	SessionID string  `json:"sessionId"`
	IdeaID    string  `json:"ideaId,omitempty"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

func newTestHub(t *testing.T) (*ws.Hub, *captureEnqueuer, *httptest.Server) {
	t.Helper()
	enq := &captureEnqueuer{accept: true}
	hub := ws.NewHub(enq)
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)
	return hub, enq, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func join(t *testing.T, conn *websocket.Conn, sessionID string) {
	t.Helper()
	if err := conn.WriteJSON(frame{Type: "join-matrix", SessionID: sessionID}); err != nil {
		t.Fatalf("join failed: %v", err)
	}
}

func readFrame(t *testing.T, conn *websocket.Conn, timeout time.Duration) (frame, bool) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	var f frame
	if err := conn.ReadJSON(&f); err != nil {
		return frame{}, false
	}
	return f, true
}

func waitForCount(hub *ws.Hub, sessionID string, want int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if hub.ConnectionCount(sessionID) == want {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return hub.ConnectionCount(sessionID) == want
}

func TestHub_BroadcastExcludesOriginator(t *testing.T) {
	hub, enq, srv := newTestHub(t)

	a := dial(t, srv)
	b := dial(t, srv)
	join(t, a, "s1")
	join(t, b, "s1")
	if !waitForCount(hub, "s1", 2, time.Second) {
		t.Fatalf("expected 2 connections in s1, got %d", hub.ConnectionCount("s1"))
	}

	// A moves an idea
	if err := a.WriteJSON(frame{Type: "matrix-position-update", SessionID: "s1", IdeaID: "idea-1", X: 30, Y: 70}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	// B receives the frame
	got, ok := readFrame(t, b, time.Second)
	if !ok {
		t.Fatal("peer never received the broadcast")
	}
	if got.Type != "matrix-position-update" || got.IdeaID != "idea-1" || got.X != 30 || got.Y != 70 {
		t.Errorf("unexpected frame: %+v", got)
	}

	// A does not get an echo
	if echo, ok := readFrame(t, a, 200*time.Millisecond); ok {
		t.Errorf("originator received its own frame: %+v", echo)
	}

	// The event reached the persistence queue once
	events := enq.all()
	if len(events) != 1 {
		t.Fatalf("expected 1 enqueued event, got %d", len(events))
	}
	if events[0].IdeaID != "idea-1" || events[0].ConnID == "" {
		t.Errorf("unexpected event: %+v", events[0])
	}
}

func TestHub_OutOfRangeCoordinatesClamp(t *testing.T) {
	hub, enq, srv := newTestHub(t)

	a := dial(t, srv)
	b := dial(t, srv)
	join(t, a, "s1")
	join(t, b, "s1")
	waitForCount(hub, "s1", 2, time.Second)

	if err := a.WriteJSON(frame{Type: "matrix-position-update", SessionID: "s1", IdeaID: "idea-1", X: 150, Y: -30}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, ok := readFrame(t, b, time.Second)
	if !ok {
		t.Fatal("peer never received the broadcast")
	}
	if got.X != 100 || got.Y != 0 {
		t.Errorf("expected clamped (100,0), got (%v,%v)", got.X, got.Y)
	}

	events := enq.all()
	if len(events) != 1 || events[0].X != 100 || events[0].Y != 0 {
		t.Errorf("persisted event not clamped: %+v", events)
	}
}

func TestHub_UpdateBeforeJoinIsDropped(t *testing.T) {
	hub, enq, srv := newTestHub(t)

	peer := dial(t, srv)
	join(t, peer, "s1")
	waitForCount(hub, "s1", 1, time.Second)

	stranger := dial(t, srv)
	if err := stranger.WriteJSON(frame{Type: "matrix-position-update", SessionID: "s1", IdeaID: "idea-1", X: 10, Y: 10}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	// Nothing reaches the joined peer or the queue
	if f, ok := readFrame(t, peer, 300*time.Millisecond); ok {
		t.Errorf("unexpected frame delivered: %+v", f)
	}
	if events := enq.all(); len(events) != 0 {
		t.Errorf("expected no enqueued events, got %v", events)
	}

	// The connection survives the violation and can join normally
	join(t, stranger, "s1")
	if !waitForCount(hub, "s1", 2, time.Second) {
		t.Errorf("connection did not survive protocol violation")
	}
}

func TestHub_SessionIsolation(t *testing.T) {
	hub, _, srv := newTestHub(t)

	a := dial(t, srv)
	other := dial(t, srv)
	join(t, a, "s1")
	join(t, other, "s2")
	waitForCount(hub, "s1", 1, time.Second)
	waitForCount(hub, "s2", 1, time.Second)

	if err := a.WriteJSON(frame{Type: "matrix-position-update", SessionID: "s1", IdeaID: "idea-1", X: 5, Y: 5}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if f, ok := readFrame(t, other, 300*time.Millisecond); ok {
		t.Errorf("frame leaked across sessions: %+v", f)
	}
}

func TestHub_SessionSwitchRefused(t *testing.T) {
	hub, enq, srv := newTestHub(t)

	a := dial(t, srv)
	join(t, a, "s1")
	waitForCount(hub, "s1", 1, time.Second)

	// Attempt to switch sessions on the live connection
	join(t, a, "s2")
	time.Sleep(100 * time.Millisecond)

	if hub.ConnectionCount("s2") != 0 {
		t.Error("session switch should be refused")
	}

	// Updates against the original session still work
	peer := dial(t, srv)
	join(t, peer, "s1")
	waitForCount(hub, "s1", 2, time.Second)

	if err := a.WriteJSON(frame{Type: "matrix-position-update", SessionID: "s1", IdeaID: "idea-1", X: 1, Y: 2}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, ok := readFrame(t, peer, time.Second); !ok {
		t.Error("original session stopped working after refused switch")
	}
	if len(enq.all()) != 1 {
		t.Errorf("expected 1 event, got %d", len(enq.all()))
	}
}

func TestHub_RESTBroadcastReachesEveryone(t *testing.T) {
	hub, _, srv := newTestHub(t)

	a := dial(t, srv)
	b := dial(t, srv)
	join(t, a, "s1")
	join(t, b, "s1")
	waitForCount(hub, "s1", 2, time.Second)

	// No originating connection: both clients get the frame
	hub.Broadcast(context.Background(), "s1", "idea-9", 40, 60, "")

	for name, conn := range map[string]*websocket.Conn{"a": a, "b": b} {
		got, ok := readFrame(t, conn, time.Second)
		if !ok {
			t.Fatalf("client %s never received the broadcast", name)
		}
		if got.IdeaID != "idea-9" || got.X != 40 || got.Y != 60 {
			t.Errorf("client %s got unexpected frame: %+v", name, got)
		}
	}
}

func TestHub_MalformedFramesIgnored(t *testing.T) {
	hub, enq, srv := newTestHub(t)

	a := dial(t, srv)
	join(t, a, "s1")
	waitForCount(hub, "s1", 1, time.Second)

	for _, raw := range []string{
		"not json at all",
		`{"type":"unknown-type","sessionId":"s1"}`,
		`{"type":"join-matrix"}`,
		`{"type":"matrix-position-update","sessionId":"s1"}`,
	} {
		if err := a.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}
	time.Sleep(100 * time.Millisecond)

	if hub.ConnectionCount("s1") != 1 {
		t.Error("malformed frames should not close the connection")
	}
	if len(enq.all()) != 0 {
		t.Errorf("malformed frames must not reach the queue: %v", enq.all())
	}
}

func TestHub_DisconnectPrunesSession(t *testing.T) {
	hub, _, srv := newTestHub(t)

	a := dial(t, srv)
	join(t, a, "s1")
	waitForCount(hub, "s1", 1, time.Second)
	if hub.SessionCount() != 1 {
		t.Fatalf("expected 1 session, got %d", hub.SessionCount())
	}

	a.Close()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && hub.SessionCount() != 0 {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.SessionCount() != 0 {
		t.Error("empty session was not pruned after disconnect")
	}
}
