// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load(ctx) layers defaults, optional YAML file, and env vars.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// CoinBudget is the marketplace budget per participant.
	CoinBudget int `koanf:"coin_budget"`

	// QueueSize bounds the in-memory position persistence queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of persistence workers.
	WorkerCount int `koanf:"worker_count"`

	// PersistRetryCount bounds retries for transient store failures.
	PersistRetryCount int `koanf:"persist_retry_count"`

	// HubSendBuffer sets the per-connection outbound frame buffer.
	HubSendBuffer int `koanf:"hub_send_buffer"`

	// DefaultPositionX and DefaultPositionY place ideas nobody moved yet.
	DefaultPositionX float64 `koanf:"default_position_x"`
	DefaultPositionY float64 `koanf:"default_position_y"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":9090",
		CoinBudget:        100,
		QueueSize:         65_536,
		WorkerCount:       runtime.NumCPU() * 2,
		PersistRetryCount: 3,
		HubSendBuffer:     64,
		DefaultPositionX:  50,
		DefaultPositionY:  50,
	}
}
