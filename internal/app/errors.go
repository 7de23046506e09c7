package service

import "errors"

// Sentinel kinds for service-level errors.
var (
	ErrUnknownModality = errors.New("unknown export modality")
)
