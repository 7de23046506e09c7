// Package worker defines the asynchronous persistence path for matrix
// position events.
package worker

import "time"

// Option applies a configuration option to the PersistWorker.
type Option func(*PersistWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *PersistWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithRetry sets the retry count and base delay for transient store
// failures. The delay grows linearly with the attempt number.
func WithRetry(count int, delay time.Duration) Option {
	return func(w *PersistWorker) {
		if count >= 0 {
			w.retryCount = count
		}
		if delay > 0 {
			w.retryDelay = delay
		}
	}
}
