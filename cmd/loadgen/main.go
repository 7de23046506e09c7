package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/quorum/internal/loadgen"
)

// Default configuration constants.
const (
	defaultIdeas        = 20
	defaultParticipants = 50
	defaultVotes        = 1000
	defaultMoves        = 20
	defaultWorkers      = 2 // multiplier for runtime.NumCPU()
	defaultTimeout      = 30 * time.Second
	defaultRunTimeout   = 10 * time.Minute
)

func main() {
	var (
		baseURL      = flag.String("url", "http://localhost:9090", "Base URL of the service")
		sessionID    = flag.String("session", "", "Session id to drive (default: generated)")
		ideas        = flag.Int("ideas", defaultIdeas, "Number of ideas to seed")
		participants = flag.Int("participants", defaultParticipants, "Number of simulated participants")
		votes        = flag.Int("votes", defaultVotes, "Number of pairwise votes to submit")
		moves        = flag.Int("moves", defaultMoves, "Matrix moves per websocket client")
		workers      = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout      = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFile      = flag.String("log", "", "Log file for run output (default: loadgen_TIMESTAMP.log)")
		verbose      = flag.Bool("verbose", false, "Enable verbose logging")
		help         = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadgen.ShowHelp()
		return
	}

	if err := loadgen.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &loadgen.Config{
		BaseURL:      *baseURL,
		SessionID:    *sessionID,
		Ideas:        *ideas,
		Participants: *participants,
		Votes:        *votes,
		Moves:        *moves,
		Workers:      *workers,
		Timeout:      *timeout,
		LogFile:      *logFile,
		Verbose:      *verbose,
	}

	if err := loadgen.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Run failed: " + err.Error() + "\n")
		return
	}
}
