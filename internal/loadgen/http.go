package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(url string) (*http.Response, error) {
	return c.client.Get(url)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(url string, body interface{}) (*http.Response, error) {
	return c.send(http.MethodPost, url, body)
}

// Put performs a PUT request with JSON body
func (c *HTTPClient) Put(url string, body interface{}) (*http.Response, error) {
	return c.send(http.MethodPut, url, body)
}

func (c *HTTPClient) send(method, url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequest(method, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// getJSON fetches url and decodes the response into v.
func getJSON(client *HTTPClient, url string, v interface{}) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("GET %s: status %d: %s", url, resp.StatusCode, string(body))
	}
	return json.Unmarshal(body, v)
}

// seedSession creates the ideas and participants sequentially. Seeding is
// small and order matters for deterministic tiebreaks downstream.
func seedSession(ctx context.Context, config *Config, ideas []ideaRequest, participants []string, stats *Stats) error {
	client := newHTTPClient(config.Timeout)

	log.Printf("Seeding %d ideas and %d participants...", len(ideas), len(participants))

	for _, idea := range ideas {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		resp, err := client.Post(config.BaseURL+"/ideas", idea)
		if err != nil {
			return fmt.Errorf("failed to create idea: %w", err)
		}
		body, _ := readResponseBody(resp)
		if resp.StatusCode != StatusCreated && resp.StatusCode != StatusOK {
			return fmt.Errorf("idea rejected: status %d: %s", resp.StatusCode, string(body))
		}
		stats.IdeasCreated++
	}

	for _, id := range participants {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		resp, err := client.Post(config.BaseURL+"/participants", participantRequest{
			SessionID:     config.SessionID,
			ParticipantID: id,
		})
		if err != nil {
			return fmt.Errorf("failed to register participant: %w", err)
		}
		body, _ := readResponseBody(resp)
		if resp.StatusCode != StatusCreated && resp.StatusCode != StatusOK {
			return fmt.Errorf("participant rejected: status %d: %s", resp.StatusCode, string(body))
		}
		stats.ParticipantsJoined++
	}

	return nil
}

// submitVotes submits pairwise votes concurrently using a worker pool.
func submitVotes(ctx context.Context, config *Config, votes []voteRequest, stats *Stats) error {
	log.Printf("Submitting %d votes with %d workers...", len(votes), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/votes"

	var (
		successful int64
		failed     int64
	)

	voteChan := make(chan voteRequest, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for vote := range voteChan {
				select {
				case <-ctx.Done():
					return
				default:
				}
				resp, err := client.Post(url, vote)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					continue
				}
				_, _ = readResponseBody(resp)
				if resp.StatusCode == StatusAccepted {
					atomic.AddInt64(&successful, 1)
				} else {
					atomic.AddInt64(&failed, 1)
				}
			}
		}()
	}

	lastReport := time.Now()
	for i, vote := range votes {
		select {
		case <-ctx.Done():
			close(voteChan)
			wg.Wait()
			return ctx.Err()
		case voteChan <- vote:
		}
		if time.Since(lastReport) >= ProgressReportInterval {
			log.Printf("  ... %d/%d votes queued (%.0f%%)", i+1, len(votes),
				float64(i+1)/float64(len(votes))*PercentageMultiplier)
			lastReport = time.Now()
		}
	}
	close(voteChan)
	wg.Wait()

	stats.VotesSubmitted = int(successful)
	stats.VotesFailed = int(failed)
	log.Printf("Votes done: %d ok, %d failed", successful, failed)
	return nil
}

// submitRankings submits one full ordering per participant concurrently.
func submitRankings(ctx context.Context, config *Config, participants, ideaIDs []string, stats *Stats) error {
	log.Printf("Submitting %d rankings with %d workers...", len(participants), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/rankings"

	var successful int64
	idChan := make(chan string, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range idChan {
				resp, err := client.Put(url, generateRanking(config, id, ideaIDs))
				if err != nil {
					continue
				}
				_, _ = readResponseBody(resp)
				if resp.StatusCode == StatusOK {
					atomic.AddInt64(&successful, 1)
				}
			}
		}()
	}

	for _, id := range participants {
		select {
		case <-ctx.Done():
			close(idChan)
			wg.Wait()
			return ctx.Err()
		case idChan <- id:
		}
	}
	close(idChan)
	wg.Wait()

	stats.RankingsSubmitted = int(successful)
	return nil
}

// submitAllocations spends each participant's full budget concurrently.
func submitAllocations(ctx context.Context, config *Config, participants, ideaIDs []string, budget int, stats *Stats) error {
	log.Printf("Submitting %d allocation sets with %d workers...", len(participants), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/allocations"

	var (
		successful int64
		failed     int64
	)
	idChan := make(chan string, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range idChan {
				resp, err := client.Put(url, generateAllocations(config, id, ideaIDs, budget))
				if err != nil {
					atomic.AddInt64(&failed, 1)
					continue
				}
				_, _ = readResponseBody(resp)
				if resp.StatusCode == StatusOK {
					atomic.AddInt64(&successful, 1)
				} else {
					atomic.AddInt64(&failed, 1)
				}
			}
		}()
	}

	for _, id := range participants {
		select {
		case <-ctx.Done():
			close(idChan)
			wg.Wait()
			return ctx.Err()
		case idChan <- id:
		}
	}
	close(idChan)
	wg.Wait()

	stats.AllocationsStored = int(successful)
	stats.AllocationsFailed = int(failed)
	return nil
}
