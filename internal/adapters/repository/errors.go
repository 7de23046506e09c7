package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound    = errors.New("not found")
	ErrEmptyID     = errors.New("empty identifier")
	ErrNilArgument = errors.New("nil argument")
)
