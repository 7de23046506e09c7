package loadgen

import (
	"context"
	"encoding/json"
	"log"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Websocket client constants.
const (
	wsClientCount    = 8
	moveInterval     = 20 * time.Millisecond
	drainGracePeriod = 500 * time.Millisecond
)

// frame mirrors the hub's wire envelope.
type frame struct {
	Type      string  `json:"type"`
	SessionID string  `json:"sessionId"`
	IdeaID    string  `json:"ideaId,omitempty"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// wsURL derives the websocket endpoint from the HTTP base URL.
func wsURL(config *Config) string {
	if config.WSBaseURL != "" {
		return config.WSBaseURL + "/ws"
	}
	base := strings.Replace(config.BaseURL, "http://", "ws://", 1)
	base = strings.Replace(base, "https://", "wss://", 1)
	return base + "/ws"
}

// runWebsocketClients connects a handful of clients to the hub, streams
// random matrix moves from each, and counts the frames fanned back out.
func runWebsocketClients(ctx context.Context, config *Config, ideaIDs []string, stats *Stats) error {
	endpoint := wsURL(config)
	if _, err := url.Parse(endpoint); err != nil {
		return err
	}

	clients := wsClientCount
	if clients > config.Participants {
		clients = config.Participants
	}

	log.Printf("Streaming %d moves from each of %d websocket clients...", config.Moves, clients)

	var (
		sent     int64
		received int64
	)
	var wg sync.WaitGroup

	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
			if err != nil {
				log.Printf("websocket dial failed: %v", err)
				return
			}
			defer conn.Close()

			join := frame{Type: "join-matrix", SessionID: config.SessionID}
			if err := conn.WriteJSON(join); err != nil {
				return
			}

			// Reader counts broadcast frames until the connection closes.
			done := make(chan struct{})
			go func() {
				defer close(done)
				for {
					_, data, err := conn.ReadMessage()
					if err != nil {
						return
					}
					var f frame
					if json.Unmarshal(data, &f) == nil && f.Type == "matrix-position-update" {
						atomic.AddInt64(&received, 1)
					}
				}
			}()

			ticker := time.NewTicker(moveInterval)
			defer ticker.Stop()
			for m := 0; m < config.Moves; m++ {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
				move := frame{
					Type:      "matrix-position-update",
					SessionID: config.SessionID,
					IdeaID:    ideaIDs[randomInt(len(ideaIDs))],
					X:         float64(randomInt(101)),
					Y:         float64(randomInt(101)),
				}
				if err := conn.WriteJSON(move); err != nil {
					return
				}
				atomic.AddInt64(&sent, 1)
			}

			// Let in-flight broadcasts land before tearing down.
			select {
			case <-time.After(drainGracePeriod):
			case <-ctx.Done():
			case <-done:
			}
		}()
	}

	wg.Wait()
	stats.MovesSent = int(sent)
	stats.FramesReceived = int(received)
	log.Printf("Websocket done: %d moves sent, %d frames received", sent, received)
	return nil
}
