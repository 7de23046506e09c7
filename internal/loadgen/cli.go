package loadgen

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/quorum/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "loadgen_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the load generator.
func ShowHelp() {
	os.Stdout.WriteString(`Quorum Session Load Generator
=============================

Drives a full decision session against a running quorum instance:
seeds ideas and participants, submits pairwise votes, ordinal rankings
and coin allocations concurrently, streams matrix moves over websockets,
then fetches every aggregate and checks internal consistency.

Usage:
  go run cmd/loadgen/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9090")
  -session string
        Session id to drive (default: generated)
  -ideas int
        Number of ideas to seed (default 20)
  -participants int
        Number of simulated participants (default 50)
  -votes int
        Number of pairwise votes to submit (default 1000)
  -moves int
        Matrix moves per websocket client (default 20)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -log string
        Log file for run output (default: loadgen_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Drive a session with default settings
  go run cmd/loadgen/main.go

  # Larger cohort against a remote instance
  go run cmd/loadgen/main.go -participants 200 -votes 10000 -url http://10.0.0.5:9090
`)
}
