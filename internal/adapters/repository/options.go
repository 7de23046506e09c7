// Package repository defines the session store interface and errors.
package repository

import "github.com/okian/quorum/internal/domain/model"

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithDefaultPosition sets the placement reported for ideas that were never
// moved on the matrix. Values are clamped like any stored position.
func WithDefaultPosition(x, y float64) Option {
	return func(s *MemStore) {
		s.defaultX = model.ClampPercent(x)
		s.defaultY = model.ClampPercent(y)
	}
}
